package domain

// PositionedTextItem is one fragment of text on a PDF page with its baseline
// coordinates, as supplied by the content-extraction facility. Ephemeral:
// discarded once the page is reconstructed into lines.
type PositionedTextItem struct {
	Text     string
	X        float64
	Y        float64
	EndsLine bool
}

// DocumentMetadata is the identifying metadata of a policy PDF.
type DocumentMetadata struct {
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	PageCount int    `json:"page_count"`
	FileName  string `json:"file_name,omitempty"`
}

// DiffKind classifies one diff segment.
type DiffKind string

const (
	DiffAdded   DiffKind = "added"
	DiffRemoved DiffKind = "removed"
	DiffEqual   DiffKind = "equal"
)

// DiffSegment is one run of text that was added, removed or left unchanged.
// A segment sequence losslessly partitions both texts: equal+added rebuilds
// the new text, equal+removed the old.
type DiffSegment struct {
	Kind DiffKind `json:"type"`
	Text string   `json:"text"`
}

// DiffSummary counts the changed segments of a structured diff.
type DiffSummary struct {
	Added         int `json:"added"`
	Removed       int `json:"removed"`
	TotalSegments int `json:"totalSegments"`
}

// StructuredDiff is the JSON-facing diff shape. Granularity is "line" unless
// line alignment found no common substrate, in which case the differ re-ran
// at word granularity.
type StructuredDiff struct {
	Summary     DiffSummary   `json:"summary"`
	Segments    []DiffSegment `json:"diff"`
	Granularity string        `json:"granularity"`
}

// UnifiedOptions label and size a unified patch.
type UnifiedOptions struct {
	OldName string
	NewName string
	// Context is the number of unchanged lines framing each hunk.
	// Zero produces a context-free patch; negative selects the default.
	Context int
}

// UnifiedDiff wraps a git-style contextual patch.
type UnifiedDiff struct {
	Patch     string `json:"patch"`
	OldLength int    `json:"oldLength"`
	NewLength int    `json:"newLength"`
}

// TableSection selects which known tabular section to extract and diff.
type TableSection string

const (
	SectionCoverage    TableSection = "coverage"
	SectionOutOfPocket TableSection = "oop"
)

// CoverageRow is one parsed row of the medication coverage table.
type CoverageRow struct {
	Medication   string   `json:"med"`
	CoverageType string   `json:"coverageType"`
	Percent      *float64 `json:"percent"`
	Copay        *float64 `json:"copay"`
	Notes        string   `json:"notes,omitempty"`
}

// OOPRow is one parsed row of the out-of-pocket examples table.
type OOPRow struct {
	Medication   string   `json:"med"`
	RetailPrice  *float64 `json:"retail"`
	CoverageRule string   `json:"coverageRule"`
	PatientPays  *float64 `json:"patientPays"`
}

// FieldChange is an [oldValue, newValue] pair for one differing field.
type FieldChange [2]interface{}

// RowChange lists only the fields that differ between two versions of the
// same medication's row, alongside both full rows.
type RowChange struct {
	Medication string                 `json:"med"`
	Changes    map[string]FieldChange `json:"changes"`
	Old        interface{}            `json:"old"`
	New        interface{}            `json:"new"`
}

// TableDiff is the structured row diff of one tabular section. Added and
// Removed hold full rows (CoverageRow or OOPRow depending on Section).
type TableDiff struct {
	Section  TableSection  `json:"section"`
	OldCount int           `json:"oldCount"`
	NewCount int           `json:"newCount"`
	Added    []interface{} `json:"added"`
	Removed  []interface{} `json:"removed"`
	Changed  []RowChange   `json:"changed"`
}
