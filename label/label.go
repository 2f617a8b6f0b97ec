// Package label reads YOLO-style annotation files into raw detections.
//
// A label file holds one detection per line in normalized center form:
//
//	<class_id> <x_center> <y_center> <width> <height> [confidence]
//
// Files follow the dataset naming convention
// <year>_<document>_page_<n>.txt, one file per annotated page. The page
// number embedded in the filename identifies the source page.
package label

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tsouza/questmd/model"
	"github.com/tsouza/questmd/normalize"
)

var fileNamePattern = regexp.MustCompile(`^(?P<year>\d{4})_(?P<doc>.+?)_page_(?P<page>\d+)\.txt$`)

// PageLabels holds the detections parsed from a single label file
type PageLabels struct {
	Year     int
	Document string
	Page     int
	Raw      []normalize.RawDetection
}

// ParseFile parses one YOLO label file. The page number is taken from the
// filename. Lines that do not hold five or six fields are skipped, the
// same policy the dataset tooling applies.
func ParseFile(path string) (*PageLabels, error) {
	match := fileNamePattern.FindStringSubmatch(filepath.Base(path))
	if match == nil {
		return nil, fmt.Errorf("label file %q does not match <year>_<document>_page_<n>.txt", filepath.Base(path))
	}

	year, _ := strconv.Atoi(match[1])
	page, _ := strconv.Atoi(match[3])

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open label file: %w", err)
	}
	defer f.Close()

	labels := &PageLabels{
		Year:     year,
		Document: match[2],
		Page:     page,
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw, ok := parseLine(scanner.Text(), page)
		if ok {
			labels.Raw = append(labels.Raw, raw)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read label file: %w", err)
	}

	return labels, nil
}

// parseLine parses one label line into a raw detection in normalized
// corner form. Returns false for lines that are not valid label records.
func parseLine(line string, page int) (normalize.RawDetection, bool) {
	fields := strings.Fields(line)
	if len(fields) != 5 && len(fields) != 6 {
		return normalize.RawDetection{}, false
	}

	classID, err := strconv.Atoi(fields[0])
	if err != nil {
		return normalize.RawDetection{}, false
	}
	class, err := model.ClassFromID(classID)
	if err != nil {
		return normalize.RawDetection{}, false
	}

	var nums [4]float64
	for i := 0; i < 4; i++ {
		nums[i], err = strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return normalize.RawDetection{}, false
		}
	}

	confidence := 1.0
	if len(fields) == 6 {
		confidence, err = strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return normalize.RawDetection{}, false
		}
	}

	box := model.FromCenter(nums[0], nums[1], nums[2], nums[3])
	return normalize.RawDetection{
		Page:       page,
		Class:      class,
		X0:         box.X0,
		Y0:         box.Y0,
		X1:         box.X1,
		Y1:         box.Y1,
		Confidence: confidence,
		Normalized: true,
	}, true
}

// ParseDir parses every label file for one document in a directory,
// keyed by the document name without extension. Files for other documents
// are ignored. Results are sorted by page number.
func ParseDir(dir, document string) ([]*PageLabels, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read label directory: %w", err)
	}

	var all []*PageLabels
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		match := fileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil || match[2] != document {
			continue
		}
		labels, err := ParseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, labels)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Page < all[j].Page
	})
	return all, nil
}

// Flatten concatenates the raw detections of several pages in page order
func Flatten(pages []*PageLabels) []normalize.RawDetection {
	var raw []normalize.RawDetection
	for _, p := range pages {
		raw = append(raw, p.Raw...)
	}
	return raw
}
