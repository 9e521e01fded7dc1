package models

// ImageKind tags where an image reference points.
type ImageKind int

const (
	// ImageNone means the record has no photo.
	ImageNone ImageKind = iota
	// ImageLocalPath is a file on the device (scratch file, camera output).
	ImageLocalPath
	// ImageRemoteURL is an image hosted by the server.
	ImageRemoteURL
	// ImageInlineData is a compressed payload held in the local store.
	ImageInlineData
)

// ImageRef is an explicit reference to a photo. The kind is always set by the
// producer; consumers never guess it from the string form.
type ImageRef struct {
	Path    string
	URL     string
	Payload []byte
	Kind    ImageKind
}

// NoImage returns the empty reference.
func NoImage() ImageRef {
	return ImageRef{Kind: ImageNone}
}

// LocalPathImage references a file on disk.
func LocalPathImage(path string) ImageRef {
	if path == "" {
		return NoImage()
	}
	return ImageRef{Kind: ImageLocalPath, Path: path}
}

// RemoteImage references an image served by the remote authority.
func RemoteImage(url string) ImageRef {
	if url == "" {
		return NoImage()
	}
	return ImageRef{Kind: ImageRemoteURL, URL: url}
}

// InlineImage references a compressed payload.
func InlineImage(payload []byte) ImageRef {
	if len(payload) == 0 {
		return NoImage()
	}
	return ImageRef{Kind: ImageInlineData, Payload: payload}
}

// IsEmpty reports whether the reference points nowhere.
func (r ImageRef) IsEmpty() bool {
	return r.Kind == ImageNone
}
