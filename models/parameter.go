package models

import (
	"gonum.org/v1/gonum/mat"
)

// Parameter is a flat trainable vector with its accumulated gradient
type Parameter struct {
	Name  string
	Value *mat.VecDense
	Grad  *mat.VecDense
}

func NewParameter(name string, size int) *Parameter {
	return &Parameter{
		Name:  name,
		Value: mat.NewVecDense(size, nil),
		Grad:  mat.NewVecDense(size, nil),
	}
}

func (p *Parameter) Size() int {
	return p.Value.Len()
}

func (p *Parameter) ZeroGrad() {
	p.Grad.Zero()
}

// CopyFrom overwrites the parameter value, leaving the gradient alone
func (p *Parameter) CopyFrom(src *Parameter) {
	p.Value.CopyVec(src.Value)
}

// PolyakFrom moves the value toward src: v = tau*src + (1-tau)*v
func (p *Parameter) PolyakFrom(src *Parameter, tau float64) {
	for i := 0; i < p.Size(); i++ {
		p.Value.SetVec(i, tau*src.Value.AtVec(i)+(1-tau)*p.Value.AtVec(i))
	}
}
