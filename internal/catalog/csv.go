package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
)

// loadTracksCSV reads a "KEY TITLE,File Name" CSV into a key -> filename
// map, matching the original track registry's two-column contract.
func loadTracksCSV(path string) (map[string]string, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	tracks := make(map[string]string)
	for _, row := range rows {
		key := row["KEY TITLE"]
		filename := row["File Name"]
		if key != "" && filename != "" {
			tracks[key] = filename
		}
	}
	return tracks, nil
}

// loadPlaylistsCSV reads a "Playlist Title,Track Key" CSV, appending each
// row's track key onto its playlist in file order.
func loadPlaylistsCSV(path string) (map[string][]string, error) {
	rows, err := readCSVRows(path)
	if err != nil {
		return nil, err
	}

	playlists := make(map[string][]string)
	for _, row := range rows {
		title := row["Playlist Title"]
		key := row["Track Key"]
		if title != "" && key != "" {
			playlists[title] = append(playlists[title], key)
		}
	}
	return playlists, nil
}

// readCSVRows reads path as a header-keyed CSV, one map per data row.
func readCSVRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open csv %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: parse csv %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
