package catalog

// canon lists the book codes of the 66-book Protestant canon in canonical
// order.
var canon = []string{
	"GEN", "EXO", "LEV", "NUM", "DEU", "JOS", "JDG", "RUT", "1SA", "2SA",
	"1KI", "2KI", "1CH", "2CH", "EZR", "NEH", "EST", "JOB", "PSA", "PRO",
	"ECC", "SNG", "ISA", "JER", "LAM", "EZK", "DAN", "HOS", "JOL", "AMO",
	"OBA", "JON", "MIC", "NAM", "HAB", "ZEP", "HAG", "ZEC", "MAL",
	"MAT", "MRK", "LUK", "JHN", "ACT", "ROM", "1CO", "2CO", "GAL", "EPH",
	"PHP", "COL", "1TH", "2TH", "1TI", "2TI", "TIT", "PHM", "HEB", "JAS",
	"1PE", "2PE", "1JN", "2JN", "3JN", "JUD", "REV",
}

var canonIndex = func() map[string]int {
	m := make(map[string]int, len(canon))
	for i, b := range canon {
		m[b] = i
	}
	return m
}()

// BookIndex returns the canonical position of a book code. ok is false for
// codes outside the canon.
func BookIndex(bookID string) (index int, ok bool) {
	index, ok = canonIndex[bookID]
	return index, ok
}
