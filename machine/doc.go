// Package machine provides the motherboard that ties the virtual machine
// together.
//
// The motherboard owns main memory, hands out reserved DMA regions and
// device ports, routes port writes, hosts background device threads and
// boots the master CPU. Devices and CPUs are plugged in through the
// interfaces defined in this package.
package machine
