package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/loxheap/vm"
)

// runSample builds one object of every kind the way the execution loop
// would, keeping each on the value stack so it survives collections, then
// prints their textual forms.
func runSample(h *vm.Heap) error {
	object := h.NewObjectClass()
	h.Push(vm.ObjVal(object))

	point := h.NewClass(rooted(h, h.CopyString("Point")))
	h.Pop()
	h.Push(vm.ObjVal(point))

	inst := h.NewInstance(point)
	h.Push(vm.ObjVal(inst))
	inst.SetField(rooted(h, h.CopyString("x")), vm.FromNumber(3))
	h.Pop()

	add := h.NewFunction()
	h.Push(vm.ObjVal(add))
	add.Name = h.CopyString("add")
	add.Arity = 2
	add.UpvalueCount = 1

	// A local of the enclosing frame, captured by the closure below.
	counterSlot := h.Stack().Len()
	h.Push(vm.FromNumber(10))

	closure := h.NewClosure(add)
	h.Push(vm.ObjVal(closure))
	closure.Upvalues[0] = h.CaptureUpvalue(counterSlot)

	h.Push(vm.ObjVal(h.NewBoundMethod(vm.ObjVal(inst), closure)))
	h.Push(vm.ObjVal(h.NewNative(clockNative)))
	h.Push(vm.ObjVal(h.NewFunction()))

	stack := h.Stack()
	for i := 0; i < stack.Len(); i++ {
		fmt.Printf("[%d] ", i)
		h.PrintValue(stack.Slot(i))
		fmt.Println()
	}

	method, ok := object.FindMethod(h.CopyString("toString"))
	if !ok {
		return errors.New("Object has no toString")
	}
	toString, _ := vm.As[*vm.NativeMethod](h, method)

	result, err := h.CallNativeMethod("toString", toString, vm.ObjVal(inst), nil)
	if err != nil {
		return err
	}
	fmt.Printf("instance toString -> %s\n", h.Format(result))

	if _, err := h.CallNativeMethod("toString", toString, vm.ObjVal(inst), []vm.Value{vm.Nil}); errors.Is(err, vm.ErrArity) {
		fmt.Printf("instance toString(nil) -> %v\n", err)
	}

	h.CloseUpvalues(counterSlot)
	stack.SetSlot(counterSlot, vm.Nil)
	fmt.Printf("captured after frame exit -> %s\n", h.Format(closure.Upvalues[0].Get()))
	return nil
}

// rooted pushes s on the stack and returns it; the caller pops it once the
// object that refers to s is linked.
func rooted(h *vm.Heap, s *vm.String) *vm.String {
	h.Push(vm.ObjVal(s))
	return s
}

func clockNative(h *vm.Heap, args []vm.Value) vm.Value {
	return vm.FromNumber(float64(time.Now().UnixNano()) / 1e9)
}
