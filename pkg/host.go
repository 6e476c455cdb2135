package pkg

import (
	"fmt"
	"strings"

	human "github.com/dustin/go-humanize"
	pshost "github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
)

// DaemonPattern matches the command line of the display daemon.
const DaemonPattern = "display.py"

// HostSummary is printed at the top of each report.
type HostSummary struct {
	Hostname     string
	Platform     string
	Version      string
	Kernel       string
	Arch         string
	MemTotal     uint64
	MemAvailable uint64
}

// Summarize collects the host details relevant to display bring-up.
func Summarize() (*HostSummary, error) {
	info, err := pshost.Info()
	if err != nil {
		return nil, err
	}
	h := &HostSummary{
		Hostname: info.Hostname,
		Platform: info.Platform,
		Version:  info.PlatformVersion,
		Kernel:   info.KernelVersion,
		Arch:     info.KernelArch,
	}
	if v, err := mem.VirtualMemory(); err == nil {
		h.MemTotal = v.Total
		h.MemAvailable = v.Available
	}
	return h, nil
}

func (h *HostSummary) String() string {
	s := fmt.Sprintf("%s: %s %s (kernel %s %s)", h.Hostname, h.Platform, h.Version, h.Kernel, h.Arch)
	if h.MemTotal != 0 {
		s += fmt.Sprintf(", %s of %s memory available", human.Bytes(h.MemAvailable), human.Bytes(h.MemTotal))
	}
	return s
}

// FindProcesses returns the PIDs whose command line contains pattern.
func FindProcesses(pattern string) ([]int32, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	var pids []int32
	for _, p := range procs {
		cmdline, err := p.Cmdline()
		if err != nil {
			// Processes exit between listing and inspection.
			continue
		}
		if matchCmdline(cmdline, pattern) {
			pids = append(pids, p.Pid)
		}
	}
	return pids, nil
}

func matchCmdline(cmdline, pattern string) bool {
	if pattern == "" {
		return false
	}
	return strings.Contains(cmdline, pattern)
}
