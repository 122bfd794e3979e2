package store

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Count int     `json:"count"`
	Runs  []Entry `json:"runs"`
}

func ExportJSON(path string, entries []Entry) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, entries)
}

func WriteJSON(w io.Writer, entries []Entry) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Count: len(entries), Runs: entries})
}
