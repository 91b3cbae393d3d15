// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"slices"
	"sync"
)

// Dropdown names of the sidebar.
const (
	DropdownGranularity = "time_granularity"
	DropdownCountries   = "countries"
	DropdownCities      = "cities"
	DropdownGenders     = "genders"
	DropdownAgeGroups   = "age_groups"
)

// DropdownNames lists every dropdown the session knows about.
var DropdownNames = []string{DropdownGranularity, DropdownCountries, DropdownCities, DropdownGenders, DropdownAgeGroups}

// Dropdowns tracks which filter dropdown is open. At most one is open at a time.
type Dropdowns struct {
	mu   sync.Mutex
	open string
}

// Toggle opens name, closing any other, or closes it if it was already open.
// Unknown names are ignored and report false.
func (d *Dropdowns) Toggle(name string) bool {
	if !slices.Contains(DropdownNames, name) {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open == name {
		d.open = ""
	} else {
		d.open = name
	}
	return true
}

// CloseAll closes whatever is open. It is the single handler for clicks
// outside of a dropdown.
func (d *Dropdowns) CloseAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = ""
}

// Open returns the open dropdown, or "".
func (d *Dropdowns) Open() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}
