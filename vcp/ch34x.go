package vcp

// WCHVendor is the WinChipHead USB vendor ID
const WCHVendor = 0x1a86

// CH34x drives WCH CH340, CH341 and CH9102 bridges
type CH34x struct {
	chip
}

// NewCH34x returns the CH34x driver
func NewCH34x() *CH34x {
	return &CH34x{chip{
		name: "ch34x",
		ids: []USBID{
			{WCHVendor, 0x7523, "CH340"},
			{WCHVendor, 0x5523, "CH341"},
			{WCHVendor, 0x55d4, "CH9102"},
			{WCHVendor, 0x7522, "CH340K"},
		},
		kernelDrivers: []string{"ch341"},
		maxBaud:       2000000,
		minDataBits:   5,
	}}
}
