// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package mailaddr

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read returns the email addresses from r, one per line. Surrounding white
// space is removed and blank lines are skipped; no further validation takes
// place.
func Read(r io.Reader) ([]string, error) {
	emails := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		emails = append(emails, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return emails, nil
}

// Load returns the email addresses from the file at path, or from stdin if
// path is "-".
func Load(path string) ([]string, error) {
	if path == "-" {
		emails, err := Read(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("cannot read email addresses from stdin: %w", err)
		}
		return emails, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open email address list: %w", err)
	}
	defer f.Close()
	emails, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read email addresses from %s: %w", path, err)
	}
	return emails, nil
}
