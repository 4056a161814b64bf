package normalize

import "strings"

// Default set of cell values that are treated as a blank cell
var BlankCellKeywords = map[string]bool{
	"n/a":   true,
	"nan":   true,
	"blank": true,
}

// IsBlank returns true if the cell should be treated as blank by checking
// if the cleaned cell is equal to "", or if the lower case value of the
// cell is in the list of "blank" keywords.
func IsBlank(cell string) bool {
	cell = CleanText(cell)
	if cell == "" {
		return true
	}

	_, ok := BlankCellKeywords[strings.ToLower(cell)]
	return ok
}

// SplitNameAndUnit takes a string of the form name(unit), where the (unit) part is optional,
// splits it up and returns the name and unit. As a special case a unit without
// a closing paren is handled too. Examples:
//
//	Rotational speed (RPM) => Rotational speed, RPM
//	quadrant               => quadrant, ""
//	length(m               => length, m
func SplitNameAndUnit(cell string) (name, unit string) {
	cell = CleanText(cell)
	if cell == "" {
		return "", ""
	}

	indexOpeningParen := strings.Index(cell, "(")
	if indexOpeningParen == -1 {
		return cell, ""
	}

	name = strings.TrimSpace(cell[:indexOpeningParen])
	rest := cell[indexOpeningParen+1:]
	if indexClosingParen := strings.Index(rest, ")"); indexClosingParen != -1 {
		rest = rest[:indexClosingParen]
	}

	return name, strings.TrimSpace(rest)
}
