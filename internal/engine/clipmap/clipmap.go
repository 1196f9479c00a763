package clipmap

// Level groups the tiles of one ring.
type Level struct {
	Index int
	Grids []*Tile
	Fills []*Tile
}

// Tiles returns the level's grids followed by its fills.
func (l *Level) Tiles() []*Tile {
	out := make([]*Tile, 0, len(l.Grids)+len(l.Fills))
	out = append(out, l.Grids...)
	return append(out, l.Fills...)
}

// Clipmap owns every tile, ordered by level. Its tile set is fixed at Build.
type Clipmap struct {
	settings Settings
	levels   []*Level
}

// Settings returns the topology the clipmap was built with.
func (c *Clipmap) Settings() Settings { return c.settings }

// Levels returns the rings from finest to coarsest.
func (c *Clipmap) Levels() []*Level { return c.levels }

// LevelCount returns the number of rings.
func (c *Clipmap) LevelCount() int { return len(c.levels) }

// Empty reports whether the clipmap has no tiles (terrain disabled).
func (c *Clipmap) Empty() bool { return len(c.levels) == 0 }

// GridCount returns the number of grid tiles over all levels.
func (c *Clipmap) GridCount() int {
	n := 0
	for _, l := range c.levels {
		n += len(l.Grids)
	}
	return n
}

// FillCount returns the number of fill tiles over all levels.
func (c *Clipmap) FillCount() int {
	n := 0
	for _, l := range c.levels {
		n += len(l.Fills)
	}
	return n
}

// TileCount returns the total number of tiles.
func (c *Clipmap) TileCount() int {
	return c.GridCount() + c.FillCount()
}

// Tiles returns every tile in dispatch order: per level, grids then fills.
func (c *Clipmap) Tiles() []*Tile {
	out := make([]*Tile, 0, c.TileCount())
	for _, l := range c.levels {
		out = append(out, l.Tiles()...)
	}
	return out
}

// VertexCount returns the total number of vertices across all tiles.
func (c *Clipmap) VertexCount() int {
	n := 0
	for _, t := range c.Tiles() {
		n += t.VertexCount
	}
	return n
}

// Release frees every tile buffer. The clipmap is empty afterwards.
func (c *Clipmap) Release() {
	if c == nil {
		return
	}
	for _, t := range c.Tiles() {
		if t.Vertices != nil {
			t.Vertices.Release()
		}
		if t.Indices != nil {
			t.Indices.Release()
		}
	}
	c.levels = nil
}
