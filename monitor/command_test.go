package monitor_test

import (
	"bytes"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/monitor"
)

var _ = Describe("ParseCommand", func() {
	It("should return an empty command for blank input", func() {
		Expect(monitor.ParseCommand("   ").Name).To(BeEmpty())
	})

	It("should lower-case the name and split arguments", func() {
		cmd := monitor.ParseCommand("  N 5 ")
		Expect(cmd.Name).To(Equal("n"))
		Expect(cmd.Args).To(Equal([]string{"5"}))
		Expect(cmd.Rest).To(Equal("5"))
	})

	It("should keep the free text after the name", func() {
		cmd := monitor.ParseCommand("a add r1,  r0, r0")
		Expect(cmd.Rest).To(Equal("add r1,  r0, r0"))
		Expect(cmd.Args).To(HaveLen(4))
	})
})

var _ = Describe("Line readers", func() {
	Describe("ScannerReader", func() {
		It("should return lines then EOF", func() {
			var out bytes.Buffer
			r := monitor.NewScannerReader(strings.NewReader("r\nq\n"), &out)

			line, err := r.ReadLine("+> ")
			Expect(err).NotTo(HaveOccurred())
			Expect(line).To(Equal("r"))

			line, err = r.ReadLine("+> ")
			Expect(err).NotTo(HaveOccurred())
			Expect(line).To(Equal("q"))

			_, err = r.ReadLine("+> ")
			Expect(err).To(Equal(io.EOF))

			Expect(out.String()).To(Equal("+> +> +> "))
		})

		It("should work without a prompt writer", func() {
			r := monitor.NewScannerReader(strings.NewReader("h"), nil)

			line, err := r.ReadLine("+> ")
			Expect(err).NotTo(HaveOccurred())
			Expect(line).To(Equal("h"))
		})
	})

	Describe("TerminalReader", func() {
		It("should read carriage-return terminated lines", func() {
			var out bytes.Buffer
			rw := struct {
				io.Reader
				io.Writer
			}{strings.NewReader("r\rq\r"), &out}
			r := monitor.NewTerminalReader(rw)

			line, err := r.ReadLine("+> ")
			Expect(err).NotTo(HaveOccurred())
			Expect(line).To(Equal("r"))

			line, err = r.ReadLine("+> ")
			Expect(err).NotTo(HaveOccurred())
			Expect(line).To(Equal("q"))

			_, err = r.ReadLine("+> ")
			Expect(err).To(Equal(io.EOF))

			Expect(out.String()).To(ContainSubstring("+> "))
		})
	})
})
