package officemap

// defaultOfficeRows is a 20x12 office (10m x 6m at 0.5m cells): a meeting
// room top-left, a project room in the middle, open desks top-right, a
// kitchen bottom-right, the entrance on the east wall and the charging dock
// bottom-left.
var defaultOfficeRows = []string{
	"####################",
	"#....#.....#.......#",
	"#....#.FF..#.FF.FF.#",
	"#....D.....D.......#",
	"##D###.....#.FF.FF.#",
	"#..................D",
	"#..................#",
	"#..FFF....OO...#####",
	"#..FFF.........D...#",
	"#..............#.F.#",
	"#C.............#...#",
	"####################",
}

var defaultOfficeLocations = []Location{
	{Name: "meeting_room", Cell: Cell{2, 2}, Kind: "room"},
	{Name: "project_room", Cell: Cell{8, 1}, Kind: "room"},
	{Name: "desks", Cell: Cell{15, 3}, Kind: "desk"},
	{Name: "lounge", Cell: Cell{8, 6}, Kind: "area"},
	{Name: "kitchen", Cell: Cell{17, 8}, Kind: "kitchen"},
	{Name: "entrance", Cell: Cell{19, 5}, Kind: "entrance"},
	{Name: "charger", Cell: Cell{1, 10}, Kind: "charger"},
}

// DefaultOffice returns the built-in office map.
func DefaultOffice() *Map {
	m, err := FromRows(defaultOfficeRows, DefaultCellSize, defaultOfficeLocations)
	if err != nil {
		panic("officemap: built-in office is invalid: " + err.Error())
	}
	return m
}
