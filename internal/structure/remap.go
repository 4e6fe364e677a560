package structure

import "strings"

// remapMinLen is the shortest atom line whose residue-name columns exist.
const remapMinLen = 20

// Remap rewrites the residue-name field (columns 18-20) of every atom line
// to ProteinTag when the original trimmed, upper-cased value is ProteinTag,
// and to WaterTag otherwise. All other lines, and atom lines shorter than 20
// bytes, are returned byte-for-byte. The line count never changes.
func Remap(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = remapLine(line)
	}
	return strings.Join(lines, "\n")
}

func remapLine(line string) string {
	if !isAtomLine(line) || len(line) < remapMinLen {
		return line
	}
	return line[:17] + tagFor(line[17:20]) + line[20:]
}

func tagFor(field string) string {
	if strings.ToUpper(strings.TrimSpace(field)) == ProteinTag {
		return ProteinTag
	}
	return WaterTag
}
