package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

var departmentCodes = map[string]string{
	"engineering":       "ENG",
	"marketing":         "MKT",
	"hr":                "HR",
	"human resources":   "HR",
	"finance":           "FIN",
	"operations":        "OPS",
	"sales":             "SAL",
	"it":                "IT",
	"design":            "DSN",
	"quality assurance": "QA",
	"research":          "RES",
}

// DepartmentCode maps a department name to its employee-id prefix.
func DepartmentCode(department string) string {
	name := strings.ToLower(strings.TrimSpace(department))
	if code, ok := departmentCodes[name]; ok {
		return code
	}
	var letters []rune
	for _, r := range department {
		if unicode.IsLetter(r) {
			letters = append(letters, unicode.ToUpper(r))
		}
		if len(letters) == 3 {
			break
		}
	}
	if len(letters) == 0 {
		return "EMP"
	}
	return string(letters)
}

func EmployeeIDPrefix(department string, now time.Time) string {
	return fmt.Sprintf("%s%02d", DepartmentCode(department), now.Year()%100)
}

// FormatEmployeeID renders prefix plus a zero-padded sequence, e.g. ENG24007.
func FormatEmployeeID(prefix string, seq int) string {
	return fmt.Sprintf("%s%03d", prefix, seq)
}
