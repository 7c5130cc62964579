//go:build windows

package logger

import "golang.org/x/sys/windows/svc"

// IsService checks if the application is running under the service control manager
func IsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}

	return isService
}
