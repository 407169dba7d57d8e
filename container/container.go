// Package container provides a compartmented byte buffer.
package container

// Container is []byte slice on steroids, allowing for quick data appending and consuming.
// A container that is set to wipe overwrites all data with zeros once it was consumed. Use this for secret material.
type Container struct {
	compartments [][]byte
	offset       int
	wipe         bool
}

// Data Handling

// New creates a new container with an optional initial []byte slice. Data will NOT be copied.
func New(data ...[]byte) *Container {
	return &Container{
		compartments: data,
	}
}

// NewWiping creates a new container that zeroes data once it was consumed. Data will NOT be copied, the container takes ownership of it.
func NewWiping(data ...[]byte) *Container {
	return &Container{
		compartments: data,
		wipe:         true,
	}
}

// Append appends the given data. Data will NOT be copied.
func (c *Container) Append(data []byte) {
	c.compartments = append(c.compartments, data)
}

// Length returns the full length of all bytes held by the container.
func (c *Container) Length() (length int) {
	for i := c.offset; i < len(c.compartments); i++ {
		length += len(c.compartments[i])
	}
	return
}

// WriteToSlice copies data to the give slice until it is full, or the container is empty. It returns the bytes written and if the container is now empty. Data IS copied and IS consumed.
func (c *Container) WriteToSlice(slice []byte) (n int, containerEmptied bool) {
	for i := c.offset; i < len(c.compartments); i++ {
		copy(slice, c.compartments[i])
		if len(slice) < len(c.compartments[i]) {
			// only part was copied
			n += len(slice)
			if c.wipe {
				clear(c.compartments[i][:len(slice)])
			}
			c.compartments[i] = c.compartments[i][len(slice):]
			c.checkOffset()
			return n, false
		}
		// all was copied
		n += len(c.compartments[i])
		slice = slice[len(c.compartments[i]):]
		if c.wipe {
			clear(c.compartments[i])
		}
		c.compartments[i] = nil
		c.offset = i + 1
	}
	c.checkOffset()
	return n, true
}

// Wipe overwrites all held data with zeros and empties the container.
func (c *Container) Wipe() {
	for i := c.offset; i < len(c.compartments); i++ {
		clear(c.compartments[i])
	}
	c.compartments = nil
	c.offset = 0
}

func (c *Container) checkOffset() {
	if c.offset >= len(c.compartments) {
		c.compartments = c.compartments[:0]
		c.offset = 0
	}
}
