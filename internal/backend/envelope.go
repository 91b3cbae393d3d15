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

package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jaycherian/olap-dashboard/internal/core/model"
)

// envelope is the response wrapper of every aggregation endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func parseEnvelope(body []byte) (*envelope, error) {
	env := &envelope{}
	if err := json.Unmarshal(body, env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	if !env.Success {
		if env.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsuccessful, env.Error)
		}
		return nil, ErrUnsuccessful
	}
	return env, nil
}

// decodeRows decodes the data array into rows, keeping numbers as
// json.Number so integer counts survive unchanged.
func decodeRows(body []byte) ([]model.Row, error) {
	env, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}
	rows := []model.Row{}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return rows, nil
	}
	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.UseNumber()
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding data: %w", err)
	}
	return rows, nil
}

func decodeData(body []byte, out any) error {
	env, err := parseEnvelope(body)
	if err != nil {
		return err
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding data: %w", err)
	}
	return nil
}

// errorMessage extracts the envelope error of a failed response, falling back
// to a trimmed body.
func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return env.Error
	}
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return string(bytes.TrimSpace(body))
}
