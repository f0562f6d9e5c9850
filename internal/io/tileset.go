package io

type Tileset struct {
	Asset          Asset   `json:"asset"`
	GeometricError float64 `json:"geometricError"`
	Root           Root    `json:"root"`
}

type Asset struct {
	Version string `json:"version"`
}

type Root struct {
	Content        *Content       `json:"content,omitempty"`
	BoundingVolume BoundingVolume `json:"boundingVolume"`
	GeometricError float64        `json:"geometricError"`
	Refine         string         `json:"refine"`
	Children       []Child        `json:"children"`
	Extras         *Extras        `json:"extras,omitempty"`
}

type Child struct {
	Content        *Content       `json:"content,omitempty"`
	BoundingVolume BoundingVolume `json:"boundingVolume"`
	GeometricError float64        `json:"geometricError"`
	Refine         string         `json:"refine"`
	Extras         *Extras        `json:"extras,omitempty"`
}

type Content struct {
	Url string `json:"uri"`
}

// Region is west, south, east, north in radians followed by the min and max height.
type BoundingVolume struct {
	Region []float64 `json:"region"`
}

type Extras struct {
	Aggregate string `json:"aggregate"`
}
