package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
)

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	Describe("NewEmulator", func() {
		It("should create an emulator with a register file", func() {
			Expect(e).NotTo(BeNil())
			Expect(e.RegFile()).NotTo(BeNil())
		})

		It("should use a provided register file", func() {
			regFile := emu.NewRegFile()
			e = emu.NewEmulator(emu.WithRegFile(regFile))

			Expect(e.RegFile()).To(BeIdenticalTo(regFile))
		})
	})

	Describe("Step", func() {
		It("should report done on an empty program", func() {
			result := e.Step()

			Expect(result.Done).To(BeTrue())
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(e.InstructionCount()).To(BeZero())
		})

		It("should execute one instruction per step", func() {
			e.LoadProgram([]insts.Instruction{insts.Movi(2, 42), insts.Mov(0, 2)})

			result := e.Step()
			Expect(result.Done).To(BeFalse())
			Expect(e.RegFile().X[2]).To(Equal(uint32(42)))
			Expect(e.RegFile().X[0]).To(BeZero())

			result = e.Step()
			Expect(result.Done).To(BeTrue())
			Expect(e.RegFile().X[0]).To(Equal(uint32(42)))
			Expect(e.InstructionCount()).To(Equal(uint64(2)))
		})
	})

	Describe("Run", func() {
		It("should run register add and sub", func() {
			e.LoadProgram([]insts.Instruction{
				insts.Movi(0, 42),
				insts.Add(1, 0, 0),
				insts.Sub(2, 1, 0),
			})

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().X[1]).To(Equal(uint32(84)))
			Expect(e.RegFile().X[2]).To(Equal(uint32(42)))
		})

		It("should run immediate add and sub", func() {
			e.LoadProgram([]insts.Instruction{
				insts.Addi(0, 42),
				insts.Addi(1, 32),
				insts.Subi(1, 10),
			})

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().X[0]).To(Equal(uint32(42)))
			Expect(e.RegFile().X[1]).To(Equal(uint32(22)))
		})

		It("should fail on an out-of-range register", func() {
			e.LoadProgram([]insts.Instruction{insts.Movi(0, 1), insts.Mov(1, 256)})

			err := e.Run()

			Expect(errors.Is(err, emu.ErrRegisterOutOfRange)).To(BeTrue())
			Expect(e.RegFile().X[0]).To(Equal(uint32(1)))
		})

		It("should stop at the instruction limit", func() {
			e = emu.NewEmulator(emu.WithMaxInstructions(2))
			e.LoadProgram([]insts.Instruction{insts.Nop(), insts.Nop(), insts.Nop()})

			err := e.Run()

			Expect(errors.Is(err, emu.ErrMaxInstructions)).To(BeTrue())
			Expect(e.InstructionCount()).To(Equal(uint64(2)))
		})
	})

	Describe("Reset", func() {
		It("should clear registers and program", func() {
			e.LoadProgram([]insts.Instruction{insts.Movi(5, 5)})
			Expect(e.Run()).To(Succeed())

			e.Reset()

			Expect(e.RegFile().X[5]).To(BeZero())
			Expect(e.InstructionCount()).To(BeZero())
			Expect(e.Step().Done).To(BeTrue())
		})
	})
})
