package selection

// Projector maps a data point (time, level) to screen pixels.
type Projector interface {
	Project(t, h float64) (x, y float64)
}

// Axes is a linear projection of a data window onto a Width x Height pixel
// area with the origin at the bottom left. Depth plots set InvertY so that
// deeper levels are drawn lower.
type Axes struct {
	XMin    float64 `json:"x_min"`
	XMax    float64 `json:"x_max"`
	YMin    float64 `json:"y_min"`
	YMax    float64 `json:"y_max"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	InvertY bool    `json:"invert_y"`
}

// Project implements Projector.
func (a Axes) Project(t, h float64) (float64, float64) {
	x := (t - a.XMin) / (a.XMax - a.XMin) * a.Width
	fy := (h - a.YMin) / (a.YMax - a.YMin)
	if a.InvertY {
		fy = 1 - fy
	}
	return x, fy * a.Height
}
