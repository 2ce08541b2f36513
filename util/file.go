package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
)

// WriteToFile writes the given strings to a file separated by new
// lines, creating parent directories as needed
func WriteToFile(savePath string, content ...string) error {
	if err := os.MkdirAll(path.Dir(savePath), os.ModePerm); err != nil {
		return err
	}
	singleString := ""
	for _, c := range content {
		singleString = fmt.Sprintf("%s%s\n", singleString, c)
	}

	return os.WriteFile(savePath, []byte(singleString), 0644)
}

// AppendToFile appends the given strings to a file, one per line,
// creating it if needed
func AppendToFile(savePath string, content ...string) error {
	if err := os.MkdirAll(path.Dir(savePath), os.ModePerm); err != nil {
		return err
	}
	f, err := os.OpenFile(savePath, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}

	defer f.Close()

	for _, s := range content {
		if _, err = f.WriteString(s + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// AppendJSONLine marshals v and appends it as a single JSONL record
func AppendJSONLine(savePath string, v interface{}) error {
	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return AppendToFile(savePath, string(bs))
}
