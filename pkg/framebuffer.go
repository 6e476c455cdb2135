package pkg

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"github.com/gonutz/framebuffer"
)

// SysfsGraphics lists the framebuffer devices of the running kernel.
const SysfsGraphics = "/sys/class/graphics"

// fbtftName is what the fbtft ST7789V driver reports as framebuffer name.
const fbtftName = "fb_st7789v"

// FindFramebuffer returns the framebuffer (e.g. "fb1") bound to the kernel
// ST7789 driver, or "" when the panel is not claimed by the kernel.
func FindFramebuffer(root string) (string, error) {
	items, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("could not enumerate framebuffers: %w", err)
	}
	for _, item := range items {
		if item.Name() == "fbcon" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, item.Name(), "name"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("could not enumerate framebuffers: %w", err)
		}
		if strings.TrimSpace(string(data)) == fbtftName {
			return item.Name(), nil
		}
	}
	return "", nil
}

// FramebufferPanel shows images through a kernel framebuffer device.
type FramebufferPanel struct {
	path string
	rect image.Rectangle
}

// OpenFramebufferPanel checks the device at path can be opened.
func OpenFramebufferPanel(path string) (*FramebufferPanel, error) {
	fb, err := framebuffer.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open framebuffer %s: %w", path, err)
	}
	defer fb.Close()
	return &FramebufferPanel{path: path, rect: fb.Bounds()}, nil
}

func (f *FramebufferPanel) String() string {
	return f.path
}

func (f *FramebufferPanel) Bounds() image.Rectangle {
	return f.rect
}

func (f *FramebufferPanel) Display(img image.Image) error {
	fb, err := framebuffer.Open(f.path)
	if err != nil {
		return fmt.Errorf("could not open framebuffer %s: %w", f.path, err)
	}
	defer fb.Close()
	draw.Draw(fb, fb.Bounds(), img, img.Bounds().Min, draw.Src)
	return nil
}

var _ Panel = &FramebufferPanel{}
