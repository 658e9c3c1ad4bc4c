// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"fmt"
	"strings"
)

const (
	bootDevicesParam = "androidboot.boot_devices="
	x86PCIPath       = "pci0000:00/0000:00:"
)

// pciBootDevices returns the boot devices parameter listing numDisks
// consecutive PCI slots starting at the given slot.
func pciBootDevices(firstSlot, numDisks int) []string {
	if numDisks <= 0 {
		return nil
	}

	devices := make([]string, 0, numDisks)
	for idx := range numDisks {
		devices = append(devices, fmt.Sprintf("%s%02x.0", x86PCIPath, firstSlot+idx))
	}

	return []string{bootDevicesParam + strings.Join(devices, ",")}
}
