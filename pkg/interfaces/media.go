package interfaces

import "context"

// ImageSource is one resolved, sized rendition of a media record.
type ImageSource struct {
	URL    string
	Width  int
	Height int
	Srcset string
	Alt    string
}

// MediaResolver resolves sized image renditions for media records. A nil
// source with a nil error means the media has no usable rendition; the
// renderer degrades to a placeholder or omits the image entirely.
type MediaResolver interface {
	ImageSource(ctx context.Context, mediaID int64, size string) (*ImageSource, error)
}

// CommerceProvider supplies markup for commerce slots on product items.
// When no provider is configured those slots render empty.
type CommerceProvider interface {
	PriceHTML(ctx context.Context, itemID int64) (string, error)
	AddToCartHTML(ctx context.Context, itemID int64, showPrice bool) (string, error)
}
