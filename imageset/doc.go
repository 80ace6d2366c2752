// Package imageset buffers the numbered parts of multi-image messages so the
// router can deliver a set as one batch once its final part arrives.
package imageset
