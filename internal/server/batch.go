package server

// fileUnit is one logical file moving through the upload pipeline: the raw
// bytes of an uploaded part, or the output of a compressor. It lives only
// for the duration of a single request.
type fileUnit struct {
	Name        string
	ContentType string
	Data        []byte
}

func (u *fileUnit) size() int64 { return int64(len(u.Data)) }
