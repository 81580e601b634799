package pipeline

// Progress messages, in the order a successful run emits them.
const (
	MsgValidating    = "Validating inputs..."
	MsgAnalyzing     = "Analyzing ROM file..."
	MsgSettingUp     = "Setting up working directory..."
	MsgCreatingTorch = "Creating Torch instance..."
	MsgRegistering   = "Processing ROM with Torch..."
	MsgProcessing    = "Processing ROM assets..."
	MsgDecompressing = "Decompressing ROM - this may take a couple of minutes..."
	MsgGenerating    = "Generating O2R file..."
	MsgVerifying     = "Verifying O2R output..."
	MsgComplete      = "Conversion complete"
)

// Failure messages raised by the orchestrator itself.
const (
	MsgBusy          = "a conversion is already in progress"
	MsgLocked        = "working directory is in use by another conversion"
	MsgCannotOpenROM = "Cannot open ROM file"
	MsgEnginePanic   = "Unknown exception during Torch processing"
	MsgUnknown       = "Unknown error occurred"
	MsgEngineFailed  = "Torch processing failed"
	MsgOutputStash   = "cannot move existing output archive aside"
)

// LockFile is the advisory lock taken in the working directory.
const LockFile = ".o2rconv.lock"

// stashSuffix is appended to an existing output archive while a conversion
// runs.
const stashSuffix = ".o2rconv-prev"
