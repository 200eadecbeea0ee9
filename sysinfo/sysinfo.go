// Package sysinfo collects the host provenance block embedded in run
// reports: enough to tell where and by whom a backup set was produced.
package sysinfo

import (
	"os/user"

	"github.com/shirou/gopsutil/v4/host"

	"custodian/logger"
)

type HostInfo struct {
	Hostname string `json:"hostname,omitempty"`
	OS       string `json:"os,omitempty"`
	Platform string `json:"platform,omitempty"`
	Username string `json:"username,omitempty"`
}

// Collect gathers host details best-effort; failures are logged and leave
// fields empty.
func Collect() *HostInfo {
	info := &HostInfo{}

	if hi, err := host.Info(); err == nil {
		info.Hostname = hi.Hostname
		info.OS = hi.OS
		info.Platform = hi.Platform
	} else {
		logger.Warnf("Failed to gather host information: %v", err)
	}

	if u, err := user.Current(); err == nil {
		info.Username = u.Username
	}
	return info
}
