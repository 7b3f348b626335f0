package character

import (
	"github.com/go-gl/mathgl/mgl64"

	"spritesync/internal/sheet"
	"spritesync/internal/snapshot"
)

// OverlayShape aligns an entity's hitbox with its sprite. Collision code
// reads it; only the character writes it.
type OverlayShape struct {
	Offset    mgl64.Vec2
	SizeTiles [2]int
}

// ResolveGeometry derives the anchor and overlay shape of a graphic. An
// anchor declared by the asset wins; otherwise the sprite is centered on the
// hitbox horizontally and stands on its bottom edge. A hitbox without area
// leaves the anchor at the origin.
//
// Both offset components scale by the sprite width, which is what existing
// collision data is tuned against.
func ResolveGeometry(d *sheet.Descriptor, hitbox *snapshot.Hitbox) (mgl64.Vec2, OverlayShape) {
	shape := OverlayShape{SizeTiles: [2]int{1, 1}}
	if d == nil || d.SpriteWidth <= 0 || d.SpriteHeight <= 0 {
		return mgl64.Vec2{}, shape
	}

	anchor, ok := d.FrameAnchor()
	if !ok && hitbox != nil && hitbox.W > 0 && hitbox.H > 0 {
		anchor = mgl64.Vec2{
			(1 - hitbox.W/d.SpriteWidth) / 2,
			1 - hitbox.H/d.SpriteHeight,
		}
	}
	shape.Offset = mgl64.Vec2{-d.SpriteWidth * anchor.X(), -d.SpriteWidth * anchor.Y()}
	return anchor, shape
}
