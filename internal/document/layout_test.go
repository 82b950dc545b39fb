package document

import (
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func runeWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s))
}

var _ = Describe("Wrap", func() {
	It("returns nothing for empty text", func() {
		Expect(Wrap("", 10, runeWidth)).To(BeEmpty())
	})

	It("fills lines greedily", func() {
		Expect(Wrap("aa bb cc dd", 5, runeWidth)).To(Equal([]string{"aa bb", "cc dd"}))
	})

	It("keeps explicit line breaks and blank lines", func() {
		Expect(Wrap("one\r\n\ntwo", 10, runeWidth)).To(Equal([]string{"one", "", "two"}))
	})

	It("breaks words wider than the line", func() {
		Expect(Wrap("ab abcdefgh", 3, runeWidth)).To(Equal([]string{"ab", "abc", "def", "gh"}))
	})

	It("never splits a multi-byte rune", func() {
		lines := Wrap("ééééé", 2, runeWidth)
		Expect(lines).To(Equal([]string{"éé", "éé", "é"}))
		for _, l := range lines {
			Expect(utf8.ValidString(l)).To(BeTrue())
		}
	})

	It("places at least one rune per line", func() {
		Expect(Wrap("abc", 0.5, runeWidth)).To(Equal([]string{"a", "b", "c"}))
	})
})

var _ = Describe("ParsePageSize", func() {
	It("defaults to A4", func() {
		size, err := ParsePageSize("")
		Expect(err).NotTo(HaveOccurred())
		Expect(size).To(Equal(PageA4))
	})

	It("accepts letter in any case", func() {
		size, err := ParsePageSize(" Letter ")
		Expect(err).NotTo(HaveOccurred())
		Expect(size).To(Equal(PageLetter))
	})

	It("rejects unknown sizes", func() {
		_, err := ParsePageSize("tabloid")
		Expect(err).To(MatchError(ContainSubstring("unknown page size")))
	})
})

var _ = Describe("SanitizeFilename", func() {
	DescribeTable("sanitizes names",
		func(input, expected string) {
			Expect(SanitizeFilename(input)).To(Equal(expected))
		},
		Entry("plain name", "report", "report.pdf"),
		Entry("keeps existing extension once", "report.PDF", "report.pdf"),
		Entry("drops special characters", "inv/oice:*?.pdf", "invoice.pdf"),
		Entry("collapses whitespace", "my   weekly\tnotes", "my_weekly_notes.pdf"),
		Entry("keeps unicode letters", "café notes", "café_notes.pdf"),
		Entry("falls back when nothing is left", "???", "document.pdf"),
	)

	It("truncates long names", func() {
		long := ""
		for range 80 {
			long += "a"
		}
		Expect(SanitizeFilename(long)).To(HaveLen(50 + len(".pdf")))
	})
})

var _ = Describe("Filename", func() {
	It("appends the epoch milliseconds", func() {
		t := time.UnixMilli(1700000000123)
		Expect(Filename("OCR Doc", t)).To(Equal("OCR_Doc_1700000000123.pdf"))
	})
})
