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

package model

import "encoding/json"

// Country is a reference entity used to populate the country dropdown.
type Country struct {
	ID   CountryID `json:"id"`
	Name string    `json:"name"`
}

// City is a reference entity used to populate the city dropdown. Cities only
// exist in the dashboard while at least one country is selected.
type City struct {
	ID      CityID `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// UnmarshalJSON accepts both {"name": ...} and the older {"city": ...} payloads
// served by the filter endpoint.
func (c *City) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID      CityID `json:"id"`
		Name    string `json:"name"`
		City    string `json:"city"`
		Country string `json:"country"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.ID = raw.ID
	c.Name = raw.Name
	if c.Name == "" {
		c.Name = raw.City
	}
	c.Country = raw.Country
	return nil
}

// ReferenceSnapshot is a point-in-time copy of the loaded reference data.
type ReferenceSnapshot struct {
	Countries []Country `json:"countries"`
	Cities    []City    `json:"available_cities"`
}

// CountryNames resolves ids to names, dropping ids that are not loaded.
func (s ReferenceSnapshot) CountryNames(ids []CountryID) []string {
	byID := make(map[CountryID]string, len(s.Countries))
	for _, c := range s.Countries {
		byID[c.ID] = c.Name
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

// CityNames resolves ids to names, dropping ids that are not loaded.
func (s ReferenceSnapshot) CityNames(ids []CityID) []string {
	byID := make(map[CityID]string, len(s.Cities))
	for _, c := range s.Cities {
		byID[c.ID] = c.Name
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

// CityIDs returns the set of city ids currently available.
func (s ReferenceSnapshot) CityIDs() map[CityID]struct{} {
	out := make(map[CityID]struct{}, len(s.Cities))
	for _, c := range s.Cities {
		out[c.ID] = struct{}{}
	}
	return out
}
