package printing

// ColorType is the color mode requested from the printer
type ColorType string

const (
	ColorTypeColor      ColorType = "color"
	ColorTypeGrayscale  ColorType = "grayscale"
	ColorTypeBlackWhite ColorType = "blackwhite"
)

// IsValid checks if the ColorType is a valid value
func (c ColorType) IsValid() bool {
	switch c {
	case ColorTypeColor, ColorTypeGrayscale, ColorTypeBlackWhite:
		return true
	}
	return false
}

// String returns the string representation of ColorType
func (c ColorType) String() string {
	return string(c)
}

// Orientation represents the page orientation for printing
type Orientation string

const (
	OrientationPortrait         Orientation = "portrait"
	OrientationLandscape        Orientation = "landscape"
	OrientationReverseLandscape Orientation = "reverse-landscape"
)

// IsValid checks if the Orientation is a valid value
func (o Orientation) IsValid() bool {
	switch o {
	case OrientationPortrait, OrientationLandscape, OrientationReverseLandscape:
		return true
	}
	return false
}

// IsLandscape returns true for both landscape variants
func (o Orientation) IsLandscape() bool {
	return o == OrientationLandscape || o == OrientationReverseLandscape
}

// String returns the string representation of Orientation
func (o Orientation) String() string {
	return string(o)
}

// PayloadType is the bridge data type of a print payload
type PayloadType string

const (
	PayloadTypeHTML  PayloadType = "html"
	PayloadTypePixel PayloadType = "pixel"
)

// PayloadFormat is the bridge data format of a print payload
type PayloadFormat string

const (
	PayloadFormatPlain PayloadFormat = "plain"
	PayloadFormatPDF   PayloadFormat = "pdf"
)

// PayloadFlavor tells the bridge how to interpret the payload data
type PayloadFlavor string

const (
	PayloadFlavorFile PayloadFlavor = "file"
)

// JobAction identifies which print action produced a job
type JobAction string

const (
	JobActionPrintDocument JobAction = "PRINT_DOCUMENT" // DANFE rendered from XML
	JobActionPrintFile     JobAction = "PRINT_FILE"     // pre-rendered PDF
)

// IsValid checks if the JobAction is a valid value
func (a JobAction) IsValid() bool {
	switch a {
	case JobActionPrintDocument, JobActionPrintFile:
		return true
	}
	return false
}

// String returns the string representation of JobAction
func (a JobAction) String() string {
	return string(a)
}

// DisplayName returns the Portuguese display name for JobAction
func (a JobAction) DisplayName() string {
	switch a {
	case JobActionPrintDocument:
		return "Impressão de NFCe"
	case JobActionPrintFile:
		return "Impressão de PDF"
	default:
		return string(a)
	}
}

// JobStatus represents the status of a print job
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusSubmitting JobStatus = "SUBMITTING" // sent to the bridge, waiting for completion
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusSubmitting, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if this is a terminal status (no further transitions)
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusSubmitting || target == JobStatusFailed
	case JobStatusSubmitting:
		return target == JobStatusCompleted || target == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return false
	}
	return false
}

// StatusLevel classifies a status message shown to the user
type StatusLevel string

const (
	StatusLevelInfo    StatusLevel = "info"
	StatusLevelSuccess StatusLevel = "success"
	StatusLevelError   StatusLevel = "error"
)

// String returns the string representation of StatusLevel
func (l StatusLevel) String() string {
	return string(l)
}
