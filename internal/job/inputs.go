package job

// Inputs for each transformation operation. The HTTP layer validates the
// request shape and applies defaults before converting to these types, so
// every field here is concrete and already within range.

// RemoveBackgroundInput contains the parameters for background removal.
type RemoveBackgroundInput struct {
	// InputPath is the source image or video reference.
	InputPath string
	// OutputFileName is the caller-supplied name for the produced file.
	OutputFileName string
}

// EffectInput contains the parameters for applying a visual effect.
type EffectInput struct {
	InputPath      string
	EffectType     string
	OutputFileName string
	// Params carries free-form effect parameters. It is serialized as a
	// single JSON object argument for the script.
	Params map[string]any
}

// GIFInput contains the parameters for GIF conversion.
type GIFInput struct {
	InputPath      string
	OutputFileName string
	FPS            int
	// Duration limits the GIF length in seconds. Nil means full length.
	Duration *float64
}

// ExportInput contains the parameters for format export.
type ExportInput struct {
	InputPath      string
	OutputFileName string
	Format         string
	Quality        string
	// Width and Height are appended to the script arguments only when
	// both are set.
	Width  int
	Height int
}

// AnimationInput contains the parameters for animating a still image.
type AnimationInput struct {
	ImagePath      string
	OutputFileName string
	EffectType     string
	Duration       float64
	FPS            int
}

// WatermarkInput contains the parameters for watermarking a video.
type WatermarkInput struct {
	VideoPath      string
	WatermarkPath  string
	OutputFileName string
	Position       string
	Opacity        float64
}

// Result is the outcome of a completed job: the retrieval URL of the
// uploaded artifact. A job either fully completes or fully fails; there
// is no partial-success variant.
type Result struct {
	URL string
}

// VideoInfo is the parsed output of the metadata-extraction script.
type VideoInfo struct {
	FPS         float64 `json:"fps"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	TotalFrames int     `json:"total_frames"`
	Duration    float64 `json:"duration"`
}
