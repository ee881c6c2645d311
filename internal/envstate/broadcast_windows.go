//go:build windows

package envstate

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	hwndBroadcast   = 0xFFFF
	wmSettingChange = 0x001A
	smtoAbortIfHung = 0x0002
	broadcastWaitMs = 5000
)

// broadcastChange posts WM_SETTINGCHANGE "Environment" to all top-level
// windows so already-running shells re-read the environment block. This is
// what the system does after setx; it reaches processes that listen for the
// message and is best-effort for everything else.
func broadcastChange() error {
	user32 := windows.NewLazySystemDLL("user32.dll")
	proc := user32.NewProc("SendMessageTimeoutW")

	param, err := syscall.UTF16PtrFromString("Environment")
	if err != nil {
		return fmt.Errorf("preparing broadcast parameter: %w", err)
	}

	ret, _, callErr := proc.Call(
		uintptr(hwndBroadcast),
		uintptr(wmSettingChange),
		0,
		uintptr(unsafe.Pointer(param)),
		uintptr(smtoAbortIfHung),
		uintptr(broadcastWaitMs),
		0,
	)
	if ret == 0 {
		return fmt.Errorf("broadcasting environment change: %w", callErr)
	}
	return nil
}
