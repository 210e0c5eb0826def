package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func encodedImage(encode func(*bytes.Buffer, image.Image) error) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func pngBytes() []byte {
	return encodedImage(func(buf *bytes.Buffer, img image.Image) error {
		return png.Encode(buf, img)
	})
}

func jpegBytes() []byte {
	return encodedImage(func(buf *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(buf, img, nil)
	})
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

var _ = Describe("prepareImageData", func() {
	It("should pass PNG data through untouched", func() {
		data := pngBytes()
		out, err := prepareImageData(data, "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(data))
	})

	It("should convert JPEG data to PNG", func() {
		out, err := prepareImageData(jpegBytes(), "image/jpeg")
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes.HasPrefix(out, pngSignature)).To(BeTrue())
	})

	It("should sniff the type when none was declared", func() {
		out, err := prepareImageData(jpegBytes(), "")
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes.HasPrefix(out, pngSignature)).To(BeTrue())
	})

	It("should reject an empty upload", func() {
		_, err := prepareImageData(nil, "image/png")
		Expect(err).To(MatchError("empty upload"))
	})

	It("should reject data that is not an image", func() {
		_, err := prepareImageData([]byte("just some text"), "text/plain")
		Expect(err).To(MatchError(ContainSubstring("converting image to PNG")))
	})
})

var _ = Describe("detectMimeType", func() {
	DescribeTable("normalizes the content type",
		func(data []byte, declared, expected string) {
			Expect(detectMimeType(data, declared)).To(Equal(expected))
		},
		Entry("declared type", []byte("x"), "image/jpeg", "image/jpeg"),
		Entry("parameters and case", []byte("x"), "Image/PNG; charset=binary", "image/png"),
		Entry("sniffed PNG", pngBytes(), "", "image/png"),
		Entry("sniffed from octet-stream", jpegBytes(), "application/octet-stream", "image/jpeg"),
		Entry("HEIC signature", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00"), "", "image/heic"),
	)
})

var _ = Describe("isHEICFormat", func() {
	DescribeTable("checks the ftyp brand",
		func(data []byte, expected bool) {
			Expect(isHEICFormat(data)).To(Equal(expected))
		},
		Entry("heic", []byte("\x00\x00\x00\x18ftypheic"), true),
		Entry("mif1", []byte("\x00\x00\x00\x18ftypmif1"), true),
		Entry("mp4", []byte("\x00\x00\x00\x18ftypisom"), false),
		Entry("too short", []byte("ftyp"), false),
	)
})
