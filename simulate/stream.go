//
// Copyright 2026 The dpstream Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package simulate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"
)

// RandomStream returns n independent events, each true with probability p.
// The same seed always yields the same stream.
func RandomStream(seed uint64, n int64, p float64) []bool {
	r := rand.New(rand.NewSource(seed))
	stream := make([]bool, n)
	for i := range stream {
		stream[i] = r.Float64() < p
	}
	return stream
}

// ReadStreamCSV reads a stream from a csv file with one event per row.
// See ReadStream for the accepted format.
func ReadStreamCSV(inputFile string) ([]bool, error) {
	csvFile, err := os.Open(inputFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the csv file = %q, err = %v", inputFile, err)
	}
	defer csvFile.Close()

	stream, err := ReadStream(csvFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the csv file = %q, err = %w", inputFile, err)
	}
	return stream, nil
}

// ReadStream reads one event per csv row. An event is any value accepted by
// strconv.ParseBool, e.g. 1, 0, true or false. The first row is skipped if it
// is not an event, so a header is optional.
func ReadStream(r io.Reader) ([]bool, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 1
	cr.TrimLeadingSpace = true

	var stream []bool
	for row := 1; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		event, err := strconv.ParseBool(strings.TrimSpace(record[0]))
		if err != nil {
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("couldn't read event = %q in row %d, err = %v", record[0], row, err)
		}
		stream = append(stream, event)
	}
	return stream, nil
}

// WriteReleasesCSV writes releases to a csv file. See WriteReleases for the
// format.
func WriteReleasesCSV(releases []Release, outputFile string) error {
	csvFile, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("couldn't open the csv file = %q, err = %v", outputFile, err)
	}

	if err := WriteReleases(csvFile, releases); err != nil {
		csvFile.Close()
		return fmt.Errorf("couldn't write to the csv file = %q, err = %w", outputFile, err)
	}

	if err := csvFile.Close(); err != nil {
		return fmt.Errorf("couldn't close the csv file = %q, err = %v", outputFile, err)
	}
	return nil
}

// WriteReleases writes a header "step,true_count,noised_count" and one row
// per release.
func WriteReleases(w io.Writer, releases []Release) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"step", "true_count", "noised_count"}); err != nil {
		return err
	}
	for _, r := range releases {
		row := []string{
			strconv.FormatInt(r.Step, 10),
			strconv.FormatInt(r.TrueCount, 10),
			strconv.FormatFloat(r.NoisedCount, 'g', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
