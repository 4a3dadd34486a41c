package core

// AppFlags is a bitfield of window and context options.
type AppFlags uint32

const (
	FlagVSync AppFlags = 1 << iota
	FlagFullscreen
	FlagResizable
	FlagBorderless
	FlagMaximized
	FlagHidden
)

// AppConfig describes how to initialize the engine. All fields are
// optional; zero values fall back to the defaults below.
type AppConfig struct {
	Title     string
	Width     int
	Height    int
	Flags     AppFlags
	TargetFPS int

	// Internal render resolutions. Zero means "same as window".
	Res2DWidth  int
	Res2DHeight int
	Res3DWidth  int
	Res3DHeight int

	// MSAA sample count for the 3D target (0 or 1 disables).
	MSAASamples int

	// Shadow map resolution per face (default 2048).
	ShadowResolution int
}

// DefaultAppConfig returns the platform defaults used when AppConfig
// fields are left zero.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Title:            "Nexium",
		Width:            1280,
		Height:           720,
		Flags:            FlagVSync | FlagResizable,
		TargetFPS:        60,
		ShadowResolution: 2048,
	}
}

// withDefaults fills the zero fields of c from DefaultAppConfig.
func (c AppConfig) WithDefaults() AppConfig {
	def := DefaultAppConfig()
	if c.Title == "" {
		c.Title = def.Title
	}
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.TargetFPS <= 0 {
		c.TargetFPS = def.TargetFPS
	}
	if c.ShadowResolution <= 0 {
		c.ShadowResolution = def.ShadowResolution
	}
	if c.Res2DWidth <= 0 || c.Res2DHeight <= 0 {
		c.Res2DWidth, c.Res2DHeight = c.Width, c.Height
	}
	if c.Res3DWidth <= 0 || c.Res3DHeight <= 0 {
		c.Res3DWidth, c.Res3DHeight = c.Width, c.Height
	}
	return c
}
