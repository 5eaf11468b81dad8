package pipeline_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

var _ = Describe("Pipeline Stages", func() {
	var regFile *emu.RegFile

	BeforeEach(func() {
		regFile = emu.NewRegFile()
	})

	Describe("FetchStage", func() {
		var fetchStage *pipeline.FetchStage

		BeforeEach(func() {
			fetchStage = pipeline.NewFetchStage(regFile)
		})

		It("should commit movi and stay in Fetch", func() {
			result, err := fetchStage.Fetch(insts.Movi(3, 7))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Committed).To(BeTrue())
			Expect(result.Next).To(Equal(pipeline.StageFetch))
			Expect(regFile.X[3]).To(Equal(uint32(7)))
		})

		It("should commit mov and stay in Fetch", func() {
			regFile.X[1] = 11

			result, err := fetchStage.Fetch(insts.Mov(2, 1))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Committed).To(BeTrue())
			Expect(regFile.X[2]).To(Equal(uint32(11)))
		})

		It("should idle on NOP", func() {
			result, err := fetchStage.Fetch(insts.Nop())

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Committed).To(BeFalse())
			Expect(result.Next).To(Equal(pipeline.StageFetch))
		})

		It("should send arithmetic to Decode without touching registers", func() {
			result, err := fetchStage.Fetch(insts.Addi(0, 5))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Next).To(Equal(pipeline.StageDecode))
			Expect(regFile.X[0]).To(BeZero())
		})
	})

	Describe("DecodeStage", func() {
		var decodeStage *pipeline.DecodeStage

		BeforeEach(func() {
			decodeStage = pipeline.NewDecodeStage(regFile, pipeline.NewDispatchTable())
			regFile.X[1] = 100
			regFile.X[2] = 50
		})

		It("should issue register add with both source values", func() {
			owner := insts.Add(0, 1, 2)

			unit, err := decodeStage.Decode(owner)

			Expect(err).NotTo(HaveOccurred())
			Expect(unit.Kind()).To(Equal(emu.UnitALU))
			Expect(unit.Instruction()).To(Equal(owner))
			unit.Execute()
			Expect(unit.Result()).To(Equal(uint32(150)))
		})

		It("should issue immediate sub against the destination register", func() {
			unit, err := decodeStage.Decode(insts.Subi(1, 30))

			Expect(err).NotTo(HaveOccurred())
			unit.Execute()
			Expect(unit.Result()).To(Equal(uint32(70)))
		})

		It("should capture operands at decode time", func() {
			unit, err := decodeStage.Decode(insts.Sub(0, 1, 2))
			Expect(err).NotTo(HaveOccurred())

			regFile.X[1] = 0
			unit.Execute()

			Expect(unit.Result()).To(Equal(uint32(50)))
		})

		It("should issue nothing for non-arithmetic instructions", func() {
			for _, inst := range []insts.Instruction{insts.Nop(), insts.Movi(0, 1), insts.Mov(0, 1)} {
				unit, err := decodeStage.Decode(inst)
				Expect(err).NotTo(HaveOccurred())
				Expect(unit).To(BeNil())
			}
		})

		It("should fail when the dispatch table has no entry", func() {
			table := pipeline.NewDispatchTable()
			table.Set(insts.OpADD, pipeline.Dispatch{Unit: emu.NumUnitKinds})
			decodeStage = pipeline.NewDecodeStage(regFile, table)

			_, err := decodeStage.Decode(insts.Add(0, 1, 2))

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ExecuteStage", func() {
		It("should execute every unit", func() {
			a, b := emu.NewALU(), emu.NewALU()
			a.Issue(insts.Addi(0, 1), 1, 1, emu.UnitOpAdd)
			b.Issue(insts.Subi(1, 1), 5, 1, emu.UnitOpSub)

			pipeline.NewExecuteStage().Execute([]emu.FunctionalUnit{a, b})

			Expect(a.Result()).To(Equal(uint32(2)))
			Expect(b.Result()).To(Equal(uint32(4)))
		})
	})

	Describe("WritebackStage", func() {
		var writebackStage *pipeline.WritebackStage

		BeforeEach(func() {
			writebackStage = pipeline.NewWritebackStage(regFile)
		})

		It("should write the result to the owner's destination", func() {
			alu := emu.NewALU()
			alu.Issue(insts.Add(9, 1, 2), 3, 4, emu.UnitOpAdd)
			alu.Execute()

			written, err := writebackStage.Writeback(alu)

			Expect(err).NotTo(HaveOccurred())
			Expect(written).To(BeTrue())
			Expect(regFile.X[9]).To(Equal(uint32(7)))
		})

		It("should ignore owners that committed at fetch", func() {
			alu := emu.NewALU()
			alu.Issue(insts.Movi(9, 1), 3, 4, emu.UnitOpAdd)
			alu.Execute()

			written, err := writebackStage.Writeback(alu)

			Expect(err).NotTo(HaveOccurred())
			Expect(written).To(BeFalse())
			Expect(regFile.X[9]).To(BeZero())
		})

		It("should panic if the unit never executed", func() {
			alu := emu.NewALU()
			alu.Issue(insts.Add(9, 1, 2), 3, 4, emu.UnitOpAdd)

			Expect(func() { _, _ = writebackStage.Writeback(alu) }).To(Panic())
		})
	})

	Describe("Opcode coverage", func() {
		var (
			fetchStage     *pipeline.FetchStage
			decodeStage    *pipeline.DecodeStage
			writebackStage *pipeline.WritebackStage
		)

		BeforeEach(func() {
			fetchStage = pipeline.NewFetchStage(regFile)
			decodeStage = pipeline.NewDecodeStage(regFile, pipeline.NewDispatchTable())
			writebackStage = pipeline.NewWritebackStage(regFile)
		})

		It("should handle every defined opcode in every stage", func() {
			for op := insts.Op(0); op < insts.NumOps; op++ {
				inst := insts.Instruction{Op: op}

				_, err := fetchStage.Fetch(inst)
				Expect(err).NotTo(HaveOccurred(), op.String())

				_, err = decodeStage.Decode(inst)
				Expect(err).NotTo(HaveOccurred(), op.String())

				alu := emu.NewALU()
				alu.Issue(inst, 0, 0, emu.UnitOpAdd)
				alu.Execute()
				_, err = writebackStage.Writeback(alu)
				Expect(err).NotTo(HaveOccurred(), op.String())
			}
		})

		It("should reject an undefined opcode in every stage", func() {
			inst := insts.Instruction{Op: insts.NumOps}

			_, err := fetchStage.Fetch(inst)
			Expect(errors.Is(err, pipeline.ErrUnhandledOp)).To(BeTrue())

			_, err = decodeStage.Decode(inst)
			Expect(errors.Is(err, pipeline.ErrUnhandledOp)).To(BeTrue())

			alu := emu.NewALU()
			alu.Issue(inst, 0, 0, emu.UnitOpAdd)
			alu.Execute()
			_, err = writebackStage.Writeback(alu)
			Expect(errors.Is(err, pipeline.ErrUnhandledOp)).To(BeTrue())
		})
	})

	Describe("DispatchTable", func() {
		It("should map every arithmetic opcode to the ALU", func() {
			table := pipeline.NewDispatchTable()

			for _, op := range []insts.Op{insts.OpADD, insts.OpADDI, insts.OpSUB, insts.OpSUBI} {
				d, ok := table.Lookup(op)
				Expect(ok).To(BeTrue(), op.String())
				Expect(d.Unit).To(Equal(emu.UnitALU))
			}
			_, ok := table.Lookup(insts.OpMOV)
			Expect(ok).To(BeFalse())
		})

		It("should accept entries on a zero table", func() {
			var table pipeline.DispatchTable

			_, ok := table.Lookup(insts.OpADD)
			Expect(ok).To(BeFalse())

			table.Set(insts.OpADD, pipeline.Dispatch{Unit: emu.UnitALU, Op: emu.UnitOpSub})

			d, ok := table.Lookup(insts.OpADD)
			Expect(ok).To(BeTrue())
			Expect(d.Op).To(Equal(emu.UnitOpSub))
		})
	})

	Describe("Stage", func() {
		It("should name every stage", func() {
			Expect(pipeline.StageFetch.String()).To(Equal("Fetch"))
			Expect(pipeline.StageDecode.String()).To(Equal("Decode"))
			Expect(pipeline.StageExecute.String()).To(Equal("Execute"))
			Expect(pipeline.StageWriteBack.String()).To(Equal("WriteBack"))
			Expect(pipeline.NumStages.String()).To(Equal("stage(4)"))
		})
	})
})
