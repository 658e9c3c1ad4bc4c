// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vm

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Argument is a single qemu command line option with or without value.
//
// Options like -m may be given only once. Backend options like -chardev,
// -netdev and -drive may be repeated but their IDs must differ. Other
// repeatable options like -device must not be given twice with the same
// value.
type Argument struct {
	name  string
	value string

	// key distinguishes repeatable arguments of the same name. Arguments
	// without key may be given only once.
	key        string
	repeatable bool
}

// String implements [fmt.Stringer].
func (a Argument) String() string {
	s := "-" + a.name
	if a.value != "" {
		s += " " + a.value
	}

	return s
}

// Name returns the option name without leading dash.
func (a Argument) Name() string {
	return a.name
}

// Value returns the value of the option.
func (a Argument) Value() string {
	return a.value
}

// Equal returns if both arguments must not be present in the same command.
func (a Argument) Equal(other Argument) bool {
	if a.name != other.name {
		return false
	}

	if !a.repeatable || !other.repeatable {
		return true
	}

	return a.key == other.key
}

func (a Argument) strings() []string {
	if a.value == "" {
		return []string{"-" + a.name}
	}

	return []string{"-" + a.name, a.value}
}

func joinProps(props ...string) string {
	return strings.Join(slices.DeleteFunc(slices.Clone(props), func(p string) bool { return p == "" }), ",")
}

// Flag returns an option without value that may be given only once.
func Flag(name string) Argument {
	return Argument{name: name}
}

// Option returns an option with the comma joined values that may be given
// only once.
func Option(name string, values ...string) Argument {
	return Argument{name: name, value: joinProps(values...)}
}

func backendArg(name, backend, id string, props ...string) Argument {
	return Argument{
		name:       name,
		value:      joinProps(append([]string{backend, "id=" + id}, props...)...),
		key:        id,
		repeatable: true,
	}
}

// Chardev returns a -chardev option for the given backend with the given ID.
func Chardev(backend, id string, props ...string) Argument {
	return backendArg("chardev", backend, id, props...)
}

// Netdev returns a -netdev option for the given backend with the given ID.
func Netdev(backend, id string, props ...string) Argument {
	return backendArg("netdev", backend, id, props...)
}

// TapNetdev returns a -netdev option for an already open tap passed as fd.
func TapNetdev(id string, fd int) Argument {
	return Netdev("tap", id, "fd="+strconv.Itoa(fd))
}

// RawDrive returns a -drive option for a raw disk image that is attached by
// a separate -device.
func RawDrive(id, file string, readOnly bool) Argument {
	readOnlyProp := ""
	if readOnly {
		readOnlyProp = "readonly=on"
	}

	return Argument{
		name:       "drive",
		value:      joinProps("file="+file, "format=raw", "if=none", "id="+id, "aio=threads", readOnlyProp),
		key:        id,
		repeatable: true,
	}
}

// Device returns a -device option for the given driver.
func Device(driver string, props ...string) Argument {
	value := joinProps(append([]string{driver}, props...)...)

	return Argument{name: "device", value: value, key: value, repeatable: true}
}

// Serial returns a -serial option connected to the chardev with the given ID.
func Serial(chardevID string) Argument {
	value := "chardev:" + chardevID

	return Argument{name: "serial", value: value, key: value, repeatable: true}
}

// Arguments is an ordered list of qemu options.
type Arguments []Argument

// Strings returns the command line strings of all arguments in order.
//
// It returns an error if two arguments collide.
func (a Arguments) Strings() ([]string, error) {
	argStrings := make([]string, 0, 2*len(a))

	for idx, arg := range a {
		if i := slices.IndexFunc(a[:idx], arg.Equal); i != -1 {
			return nil, fmt.Errorf("%w: %s, %s", ErrArgumentCollision, arg, a[i])
		}

		argStrings = append(argStrings, arg.strings()...)
	}

	return argStrings, nil
}
