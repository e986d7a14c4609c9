package vcp

// SiliconLabsVendor is the Silicon Labs USB vendor ID
const SiliconLabsVendor = 0x10c4

// CP210x drives Silicon Labs CP2102, CP2104, CP2105 and CP2108 bridges
type CP210x struct {
	chip
}

// NewCP210x returns the CP210x driver
func NewCP210x() *CP210x {
	return &CP210x{chip{
		name: "cp210x",
		ids: []USBID{
			{SiliconLabsVendor, 0xea60, "CP2102/CP2104"},
			{SiliconLabsVendor, 0xea70, "CP2105"},
			{SiliconLabsVendor, 0xea71, "CP2108"},
			{SiliconLabsVendor, 0xea61, "CP210x"},
			{SiliconLabsVendor, 0xea63, "CP210x"},
		},
		kernelDrivers: []string{"cp210x"},
		maxBaud:       3000000,
		minDataBits:   5,
	}}
}
