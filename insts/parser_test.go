package insts_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/insts"
)

var _ = Describe("Parser", func() {
	var parser *insts.Parser

	BeforeEach(func() {
		parser = insts.NewParser()
	})

	Describe("ParseLine", func() {
		DescribeTable("should parse every mnemonic to the variant it names",
			func(line string, expected insts.Instruction) {
				inst, err := parser.ParseLine(line)

				Expect(err).NotTo(HaveOccurred())
				Expect(inst).To(Equal(expected))
			},
			Entry("movi", "movi r0, #1", insts.Movi(0, 1)),
			Entry("mov", "mov r0, r1", insts.Mov(0, 1)),
			Entry("addi", "addi r0, #1", insts.Addi(0, 1)),
			Entry("subi", "subi r0, #1", insts.Subi(0, 1)),
			Entry("add", "add r0, r1, r2", insts.Add(0, 1, 2)),
			Entry("addr", "addr r0, r1, r2", insts.Add(0, 1, 2)),
			Entry("sub", "sub r0, r1, r2", insts.Sub(0, 1, 2)),
			Entry("subr", "subr r0, r1, r2", insts.Sub(0, 1, 2)),
			Entry("nop", "nop", insts.Nop()),
		)

		It("should accept bare numbers and no commas", func() {
			inst, err := parser.ParseLine("movi 0 42")

			Expect(err).NotTo(HaveOccurred())
			Expect(inst).To(Equal(insts.Movi(0, 42)))
		})

		It("should be case-insensitive on mnemonics and register prefixes", func() {
			inst, err := parser.ParseLine("ADDR R3, R4, R5")

			Expect(err).NotTo(HaveOccurred())
			Expect(inst).To(Equal(insts.Add(3, 4, 5)))
		})

		It("should parse hex immediates", func() {
			inst, err := parser.ParseLine("movi r1, #0xFFFFFFFF")

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Imm).To(Equal(uint32(0xFFFFFFFF)))
		})

		It("should not range-check register indices", func() {
			inst, err := parser.ParseLine("movi r300, #1")

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Rd).To(Equal(uint32(300)))
		})

		It("should ignore trailing comments", func() {
			inst, err := parser.ParseLine("subi r1, #10 ; r1 -= 10")

			Expect(err).NotTo(HaveOccurred())
			Expect(inst).To(Equal(insts.Subi(1, 10)))
		})

		It("should reject unknown mnemonics", func() {
			_, err := parser.ParseLine("mul r0, r1, r2")

			Expect(errors.Is(err, insts.ErrUnknownMnemonic)).To(BeTrue())
		})

		It("should reject the wrong number of operands", func() {
			_, err := parser.ParseLine("add r0, r1")

			Expect(errors.Is(err, insts.ErrOperandCount)).To(BeTrue())
		})

		It("should reject an immediate in a register slot", func() {
			_, err := parser.ParseLine("mov r0, #1")

			Expect(errors.Is(err, insts.ErrBadOperand)).To(BeTrue())
		})

		It("should reject a register in an immediate slot", func() {
			_, err := parser.ParseLine("addi r0, r1")

			Expect(errors.Is(err, insts.ErrBadOperand)).To(BeTrue())
		})

		It("should reject values that overflow 32 bits", func() {
			_, err := parser.ParseLine("movi r0, #4294967296")

			Expect(errors.Is(err, insts.ErrBadOperand)).To(BeTrue())
		})

		It("should reject negative immediates", func() {
			_, err := parser.ParseLine("movi r0, #-1")

			Expect(errors.Is(err, insts.ErrBadOperand)).To(BeTrue())
		})

		It("should report blank lines", func() {
			_, err := parser.ParseLine("   ; nothing here")

			Expect(errors.Is(err, insts.ErrEmptyLine)).To(BeTrue())
		})
	})

	Describe("Round trip", func() {
		It("should parse the printed form back to the same instruction", func() {
			program := []insts.Instruction{
				insts.Nop(),
				insts.Movi(7, 0xDEAD),
				insts.Mov(255, 7),
				insts.Addi(3, 1),
				insts.Subi(3, 2),
				insts.Add(9, 8, 7),
				insts.Sub(6, 5, 4),
			}

			for _, want := range program {
				got, err := parser.ParseLine(want.String())
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			}
		})
	})

	Describe("Parse", func() {
		It("should skip blank lines and keep source line numbers", func() {
			src := strings.Join([]string{
				"; program header",
				"movi r0, #42",
				"",
				"add r1, r0, r0",
				"// trailing comment",
				"sub r2, r1, r0",
			}, "\n")

			results := parser.ParseString(src)

			Expect(results).To(HaveLen(3))
			Expect(results[0].Line).To(Equal(2))
			Expect(results[1].Line).To(Equal(4))
			Expect(results[2].Line).To(Equal(6))
			for _, r := range results {
				Expect(r.OK()).To(BeTrue())
			}
		})

		It("should carry parse failures per line", func() {
			results := parser.ParseString("movi r0, #1\nbogus\nmovi r1, #2\n")

			Expect(results).To(HaveLen(3))
			Expect(results[0].OK()).To(BeTrue())
			Expect(results[1].OK()).To(BeFalse())
			Expect(results[1].Text).To(Equal("bogus"))
			Expect(results[2].Inst).To(Equal(insts.Movi(1, 2)))
		})
	})
})
