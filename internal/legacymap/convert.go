// Package legacymap converts the pre-release Shift-JIS text room format
// (`map-Y-X.dat`) into the binary `.room` files the live server loads.
// Grounded on original_source/src/legacy_map_conversion.rs.
package legacymap

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/CaveStoryModdingCommunity/soaprun-server/internal/worldstore"
)

const (
	legacyRoomExtension = "dat"
	// legacyRoomMaxLines accounts for the optional map-name line introduced
	// in the original client's v0030, read ahead of the room's 16 data rows.
	legacyRoomMaxLines = worldstore.RoomHeight + 1
)

// NotEnoughLinesError reports a legacy room file with fewer than the 16
// required data lines.
type NotEnoughLinesError struct{ Got, Expected int }

func (e NotEnoughLinesError) Error() string {
	return fmt.Sprintf("only got %d/%d lines", e.Got, e.Expected)
}

// LineDecodeError reports a Shift-JIS decode failure partway through a file.
type LineDecodeError struct {
	Line int
	Err  error
}

func (e LineDecodeError) Error() string {
	return fmt.Sprintf("decode error on line %d: %v", e.Line, e.Err)
}
func (e LineDecodeError) Unwrap() error { return e.Err }

// InvalidLineLengthError reports a data row that isn't exactly RoomWidth
// characters wide.
type InvalidLineLengthError struct{ Line, Got, Expected int }

func (e InvalidLineLengthError) Error() string {
	return fmt.Sprintf("expected line %d to be %d characters long, but it was %d", e.Line, e.Expected, e.Got)
}

// InvalidCharacterError reports a non-digit character in a data row.
type InvalidCharacterError struct{ Line, Character int }

func (e InvalidCharacterError) Error() string {
	return fmt.Sprintf("encountered invalid character on line %d at position %d", e.Line, e.Character)
}

// CharacterOutOfRangeError reports a digit with no entry in the conversion
// map.
type CharacterOutOfRangeError struct {
	Line, Character int
	Got, Max         byte
}

func (e CharacterOutOfRangeError) Error() string {
	return fmt.Sprintf("tile on line %d at position %d was not in the conversion map (got %d, but the map only goes up to %d)",
		e.Line, e.Character, e.Got, e.Max)
}

// ReadLegacyRoom reads one Shift-JIS `.dat` file and maps its digit grid
// through conversionMap into a 336-byte room data blob, returning the
// embedded map name if the file has one. Grounded on
// legacy_map_conversion.rs::read_legacy_room.
func ReadLegacyRoom(path string, conversionMap []byte) (name string, data []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(transform.NewReader(f, japanese.ShiftJIS.NewDecoder()))
	lines := make([]string, 0, legacyRoomMaxLines)
	for i := 0; i < legacyRoomMaxLines; i++ {
		if !scanner.Scan() {
			if serr := scanner.Err(); serr != nil {
				return "", nil, LineDecodeError{Line: i, Err: serr}
			}
			break
		}
		lines = append(lines, scanner.Text())
	}
	if len(lines) < worldstore.RoomHeight {
		return "", nil, NotEnoughLinesError{Got: len(lines), Expected: worldstore.RoomHeight}
	}

	start := 0
	if len(lines) == legacyRoomMaxLines {
		name = lines[0]
		start = 1
	}

	data = make([]byte, 0, worldstore.RoomWidth*worldstore.RoomHeight)
	for i, line := range lines[start:] {
		runes := []rune(line)
		if len(runes) != worldstore.RoomWidth {
			return "", nil, InvalidLineLengthError{Line: i, Got: len(runes), Expected: worldstore.RoomWidth}
		}
		for ci, r := range runes {
			if r < '0' || r > '9' {
				return "", nil, InvalidCharacterError{Line: i, Character: ci}
			}
			val := byte(r - '0')
			if int(val) >= len(conversionMap) {
				return "", nil, CharacterOutOfRangeError{Line: i, Character: ci, Got: val, Max: byte(len(conversionMap))}
			}
			data = append(data, conversionMap[val])
		}
	}
	return name, data, nil
}

// Report describes the outcome of converting one legacy room file.
type Report struct {
	InPath, OutPath, MapName string
	Err                      error
}

// ConvertRooms globs every `map-Y-X.dat` file in inDir, converts it through
// conversionMapPath's byte table, and writes `X,Y.room` files into outDir
// (created if absent) plus a names.txt summary. log receives one progress
// line per file attempted; it may be nil. Grounded on
// legacy_map_conversion.rs::convert_rooms.
func ConvertRooms(inDir, conversionMapPath, outDir string, log func(string)) error {
	if log == nil {
		log = func(string) {}
	}

	conversionMap, err := os.ReadFile(conversionMapPath)
	if err != nil {
		return fmt.Errorf("read conversion map %s: %w", conversionMapPath, err)
	}
	if len(conversionMap) > 255 {
		return fmt.Errorf("conversion map %s has %d entries, more than a byte can index", conversionMapPath, len(conversionMap))
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", outDir, err)
	}

	matches, err := filepath.Glob(filepath.Join(inDir, "*."+legacyRoomExtension))
	if err != nil {
		return fmt.Errorf("glob %s: %w", inDir, err)
	}

	var names []string
	for _, path := range matches {
		stem := strings.TrimSuffix(filepath.Base(path), "."+legacyRoomExtension)
		parts := strings.Split(stem, "-")
		if len(parts) != 3 || parts[0] != "map" {
			log(fmt.Sprintf("skipping %q: expected \"map-Y-X\" name", stem))
			continue
		}
		y, yerr := strconv.ParseUint(parts[1], 10, 8)
		x, xerr := strconv.ParseUint(parts[2], 10, 8)
		if yerr != nil || xerr != nil {
			log(fmt.Sprintf("skipping %q: (%s, %s) isn't a valid room coordinate", stem, parts[1], parts[2]))
			continue
		}

		name, data, err := ReadLegacyRoom(path, conversionMap)
		if err != nil {
			log(fmt.Sprintf("failed to convert %s: %v", path, err))
			continue
		}

		outName := fmt.Sprintf("%d,%d.room", x, y)
		outPath := filepath.Join(outDir, outName)
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			log(fmt.Sprintf("failed to write %s: %v", outPath, err))
			continue
		}

		log(fmt.Sprintf("processed %s: %q -> %s", path, name, outPath))
		names = append(names, fmt.Sprintf("%s -> %s (%s)", path, outPath, name))
	}

	return os.WriteFile(filepath.Join(outDir, "names.txt"), []byte(strings.Join(names, "\n")), 0o644)
}
