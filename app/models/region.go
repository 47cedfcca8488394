package models

// Region is one row of the administrative region table.
type Region struct {
	ID           uint64 `bson:"id" json:"id"`                         // Region id
	PID          uint64 `bson:"pid" json:"pid"`                       // Parent id, 0 for roots
	Deep         uint8  `bson:"deep" json:"deep"`                     // 0=province, 1=city, 2=district, 3=county
	Name         string `bson:"name" json:"name"`                     // Short name
	PinyinPrefix string `bson:"pinyin_prefix" json:"pinyin_prefix"`   // Pinyin initial
	Pinyin       string `bson:"pinyin" json:"pinyin"`                 // Full pinyin
	ExtID        string `bson:"ext_id" json:"ext_id"`                 // External administrative code
	ExtName      string `bson:"ext_name" json:"ext_name"`             // Full external name
}

// RegionMap lookup from region id to region. Read-only once built.
type RegionMap map[uint64]Region

// Level constants
const (
	LevelProvince uint8 = 0
	LevelCity     uint8 = 1
	LevelDistrict uint8 = 2
	LevelCounty   uint8 = 3
)

// IsRoot reports whether the region has no parent.
func (r *Region) IsRoot() bool {
	return r.PID == 0
}

// IsKnownLevel reports whether Deep maps to one of the four address slots.
func (r *Region) IsKnownLevel() bool {
	return r.Deep <= LevelCounty
}
