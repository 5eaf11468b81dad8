package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/loader"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

var _ = Describe("Source Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "source-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	writeSource := func(name, src string) string {
		path := filepath.Join(tempDir, name)
		Expect(os.WriteFile(path, []byte(src), 0644)).To(Succeed())
		return path
	}

	Describe("Load", func() {
		Context("with a valid source file", func() {
			var path string

			BeforeEach(func() {
				path = writeSource("prog.s", `; register test
movi r0, #42
add r1, r0, r0

sub r2, r1, r0
`)
			})

			It("should load without error", func() {
				prog, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Path).To(Equal(path))
			})

			It("should keep one result per instruction line", func() {
				prog, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Results).To(HaveLen(3))
				Expect(prog.Results[0].Line).To(Equal(2))
				Expect(prog.Results[2].Line).To(Equal(5))
			})

			It("should return the instructions in order", func() {
				prog, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Instructions()).To(Equal([]insts.Instruction{
					insts.Movi(0, 42),
					insts.Add(1, 0, 0),
					insts.Sub(2, 1, 0),
				}))
				Expect(prog.Errors()).To(BeEmpty())
			})
		})

		Context("with bad lines", func() {
			It("should keep good lines and report bad ones", func() {
				path := writeSource("bad.s", "movi r0, #1\nmul r1, r0, r0\naddi r0, #2\n")

				prog, err := loader.Load(path)

				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Instructions()).To(Equal([]insts.Instruction{
					insts.Movi(0, 1),
					insts.Addi(0, 2),
				}))
				errs := prog.Errors()
				Expect(errs).To(HaveLen(1))
				Expect(errors.Is(errs[0], insts.ErrUnknownMnemonic)).To(BeTrue())
				Expect(errs[0].Error()).To(HavePrefix(path + ":2:"))
			})
		})

		It("should return error for non-existent file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing.s"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("should load an empty file", func() {
			prog, err := loader.Load(writeSource("empty.s", ""))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Results).To(BeEmpty())
		})
	})

	Describe("LoadReader", func() {
		It("should name the program", func() {
			prog, err := loader.LoadReader("inline", strings.NewReader("nop"))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Path).To(Equal("inline"))
			Expect(prog.Instructions()).To(Equal([]insts.Instruction{insts.Nop()}))
		})

		It("should wrap read failures with the name", func() {
			_, err := loader.LoadReader("broken", failingReader{})
			Expect(err).To(MatchError(ContainSubstring("broken")))
		})
	})
})
