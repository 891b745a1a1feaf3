package ingest

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported input encodings. Exports from mainland terminals are often GBK.
const (
	EncodingUTF8    = "utf8"
	EncodingGBK     = "gbk"
	EncodingGB18030 = "gb18030"
)

// decode wraps r so it yields UTF-8. A UTF-8 byte order mark is dropped.
func decode(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8, "utf-8":
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	case EncodingGBK:
		return transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()), nil
	case EncodingGB18030:
		return transform.NewReader(r, simplifiedchinese.GB18030.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
}
