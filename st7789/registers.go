package st7789

// Command set of the ST7789V controller.
const (
	NOP     = 0x00
	SWRESET = 0x01
	RDDID   = 0x04
	RDDST   = 0x09

	SLPIN  = 0x10
	SLPOUT = 0x11
	PTLON  = 0x12
	NORON  = 0x13

	INVOFF  = 0x20
	INVON   = 0x21
	DISPOFF = 0x28
	DISPON  = 0x29

	CASET = 0x2A
	RASET = 0x2B
	RAMWR = 0x2C
	RAMRD = 0x2E

	PTLAR  = 0x30
	MADCTL = 0x36
	COLMOD = 0x3A

	WRDISBV = 0x51
	WRCTRLD = 0x53

	FRMCTR2  = 0xB2
	GCTRL    = 0xB7
	VCOMS    = 0xBB
	LCMCTRL  = 0xC0
	VDVVRHEN = 0xC2
	VRHS     = 0xC3
	VDVS     = 0xC4
	FRCTRL2  = 0xC6
	PWCTRL1  = 0xD0

	GMCTRP1 = 0xE0
	GMCTRN1 = 0xE1
)

// MADCTL bits.
const (
	MADCTL_MY  = 0x80
	MADCTL_MX  = 0x40
	MADCTL_MV  = 0x20
	MADCTL_ML  = 0x10
	MADCTL_BGR = 0x08
	MADCTL_MH  = 0x04
)

// COLMOD value for 16 bits per pixel, 65K colors.
const colorMode565 = 0x55

// Rotation is the clock-wise rotation of the panel in 90 degree steps.
type Rotation uint8

const (
	NO_ROTATION  Rotation = 0
	ROTATION_90  Rotation = 1 // 90 degrees clock-wise rotation
	ROTATION_180 Rotation = 2
	ROTATION_270 Rotation = 3
)
