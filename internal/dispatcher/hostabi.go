package dispatcher

import (
	"fmt"
	"runtime"

	"github.com/tramp-ffi/trampoline/internal/abi"
)

// ErrUnsupportedHost is returned when the running GOOS/GOARCH pair has
// no ABI backend registered.
var ErrUnsupportedHost = fmt.Errorf("dispatcher: no ABI backend for %s/%s", runtime.GOOS, runtime.GOARCH)

// HostABI selects the target ABI for the running process by
// GOOS/GOARCH, per spec.md §6's "selected by build/target detection;
// no runtime switch is exposed" requirement.
func HostABI() (abi.ABI, error) {
	switch runtime.GOARCH {
	case "amd64":
		if runtime.GOOS == "windows" {
			return abi.MicrosoftX64, nil
		}
		return abi.SystemVAMD64, nil
	case "arm64":
		// AAPCS64 as implemented here is Linux/macOS's variant; Windows
		// on ARM64 uses its own (ARM64EC-adjacent) calling convention
		// and is out of scope, so it must fail closed rather than
		// silently compile a trampoline against the wrong ABI.
		if runtime.GOOS == "windows" {
			return 0, ErrUnsupportedHost
		}
		return abi.AAPCS64, nil
	default:
		return 0, ErrUnsupportedHost
	}
}
