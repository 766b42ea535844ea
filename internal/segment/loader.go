package segment

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"sjsage522/bilisentiment/helpers"
	"sjsage522/bilisentiment/logger"
	"sjsage522/bilisentiment/pkg/errors"
)

// LoadFile reads a segment table from a CSV file, see Load
func LoadFile(path string) ([]Definition, []Rejection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewConfiguration("open segment table "+path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads segment rows of the form
//
//	name,page,range          e.g. 开场,1,00:00-05:30
//	name,page,start,end      e.g. 开场,1,00:00,05:30
//
// page is 1-based as shown on the site. The range may be empty, meaning the whole page.
// A header row starting with "name" is skipped. Malformed rows are skipped and reported,
// only an unreadable source is an error.
func Load(r io.Reader) ([]Definition, []Rejection, error) {
	log := logger.ForResolver()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var defs []Definition
	var rejections []Rejection
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			if _, ok := err.(*csv.ParseError); ok {
				rejections = append(rejections, Rejection{Name: fmt.Sprintf("row:%d", line), Reason: err.Error()})
				continue
			}
			return nil, nil, errors.NewParse("segments", "read segment table", err)
		}

		if line == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
			continue
		}
		if isBlank(record) {
			continue
		}

		def, perr := parseRow(record)
		if perr != nil {
			pe := errors.NewParse(fmt.Sprintf("row:%d", line), "segment row skipped", perr)
			log.Warn().Err(pe).Msg("Malformed segment row")
			rejections = append(rejections, Rejection{Name: strings.TrimSpace(record[0]), Reason: perr.Error()})
			continue
		}
		defs = append(defs, def)
	}

	return defs, rejections, nil
}

func parseRow(record []string) (Definition, error) {
	if len(record) < 2 {
		return Definition{}, fmt.Errorf("expected at least name and page, got %d fields", len(record))
	}

	def := Definition{Name: strings.TrimSpace(record[0])}
	if def.Name == "" {
		return Definition{}, fmt.Errorf("empty segment name")
	}

	page, err := strconv.Atoi(strings.TrimSpace(record[1]))
	if err != nil || page < 1 {
		return Definition{}, fmt.Errorf("invalid page %q", record[1])
	}
	def.PageIndex = page - 1

	var start, end int
	switch {
	case len(record) >= 4:
		if start, err = helpers.ParseClock(record[2]); err != nil {
			return Definition{}, err
		}
		if end, err = helpers.ParseClock(record[3]); err != nil {
			return Definition{}, err
		}
		def.HasRange = true
	case len(record) == 3 && strings.TrimSpace(record[2]) != "":
		if start, end, err = helpers.ParseClockRange(record[2]); err != nil {
			return Definition{}, err
		}
		def.HasRange = true
	}
	def.StartSeconds, def.EndSeconds = start, end

	return def, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
