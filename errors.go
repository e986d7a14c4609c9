package vcpmon

import "errors"

var (
	// ErrAlreadyInstalled is returned by Start while another Core is running
	ErrAlreadyInstalled = errors.New("vcpmon: already started in this process")
	// ErrInvalidOption is returned for out-of-range option values
	ErrInvalidOption = errors.New("vcpmon: invalid option")
)
