//go:build darwin && cgo

package capture

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
#include <dlfcn.h>
#include <stdlib.h>

typedef struct {
    void*  data;
    size_t size;
    int    width;
    int    height;
} DisplayPixels;

// CGWindowListCreateImage is missing from the macOS 15 SDK headers but the
// symbol still ships in the CoreGraphics dylib.
typedef CGImageRef (*CGWindowListCreateImageFunc)(
    CGRect screenBounds,
    uint32_t listOption,
    uint32_t windowID,
    uint32_t imageOption
);

static CGWindowListCreateImageFunc windowListCreateImage(void) {
    static CGWindowListCreateImageFunc fn = NULL;
    if (!fn) {
        fn = (CGWindowListCreateImageFunc)dlsym(RTLD_DEFAULT, "CGWindowListCreateImage");
    }
    return fn;
}

// grabDisplay renders the part of the display inside rect (in points,
// display-local) into a tightly packed RGBA buffer.
DisplayPixels grabDisplay(CGDirectDisplayID displayID, double x, double y, double w, double h) {
    DisplayPixels result = {0};

    CGWindowListCreateImageFunc fn = windowListCreateImage();
    if (!fn) {
        return result;
    }

    CGRect bounds = CGDisplayBounds(displayID);
    CGRect rect = CGRectMake(bounds.origin.x + x, bounds.origin.y + y, w, h);
    // kCGWindowListOptionOnScreenOnly = 1, kCGNullWindowID = 0, kCGWindowImageNominalResolution = 1 << 4
    CGImageRef image = fn(rect, 1, 0, 1 << 4);
    if (!image) {
        return result;
    }

    result.width  = (int)CGImageGetWidth(image);
    result.height = (int)CGImageGetHeight(image);
    size_t stride = (size_t)result.width * 4;
    result.size   = stride * result.height;
    result.data   = malloc(result.size);
    if (!result.data) {
        CGImageRelease(image);
        result.size = 0;
        return result;
    }

    CGColorSpaceRef cs = CGColorSpaceCreateDeviceRGB();
    CGContextRef ctx = CGBitmapContextCreate(
        result.data, result.width, result.height, 8, stride, cs,
        kCGImageAlphaPremultipliedLast
    );
    CGContextDrawImage(ctx, CGRectMake(0, 0, result.width, result.height), image);
    CGContextRelease(ctx);
    CGColorSpaceRelease(cs);
    CGImageRelease(image);

    return result;
}

void freeDisplayPixels(void* data) {
    free(data);
}
*/
import "C"

import (
	"image"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/junsooki/cellframe/internal/permissions"
)

// ErrPermissionDenied is returned when Screen Recording access is missing.
var ErrPermissionDenied = errors.New("screen recording permission denied")

type coreGraphicsDisplay struct {
	id C.CGDirectDisplayID
}

// NewDisplaySource opens the display at index (0 = main display).
func NewDisplaySource(index int) (DisplaySource, error) {
	if !permissions.HasScreenRecording() {
		permissions.RequestScreenRecording()
		return nil, ErrPermissionDenied
	}
	if index == 0 {
		return &coreGraphicsDisplay{id: C.CGMainDisplayID()}, nil
	}

	var displays [16]C.CGDirectDisplayID
	var count C.uint32_t
	C.CGGetActiveDisplayList(16, &displays[0], &count)
	if index < 0 || index >= int(count) {
		return nil, errors.Wrapf(ErrDisplayNotFound, "display index %d (have %d displays)", index, count)
	}
	return &coreGraphicsDisplay{id: displays[index]}, nil
}

// Bounds is in points; captures use nominal resolution so points and pixels agree.
func (d *coreGraphicsDisplay) Bounds() (image.Rectangle, error) {
	b := C.CGDisplayBounds(d.id)
	return image.Rect(0, 0, int(b.size.width), int(b.size.height)), nil
}

func (d *coreGraphicsDisplay) Grab(rect image.Rectangle) (*image.RGBA, error) {
	px := C.grabDisplay(d.id,
		C.double(rect.Min.X), C.double(rect.Min.Y),
		C.double(rect.Dx()), C.double(rect.Dy()))
	if px.data == nil {
		return nil, errors.New("CGWindowListCreateImage returned no image")
	}
	defer C.freeDisplayPixels(px.data)

	w := int(px.width)
	h := int(px.height)
	pix := make([]byte, int(px.size))
	copy(pix, unsafe.Slice((*byte)(px.data), len(pix)))

	return &image.RGBA{
		Pix:    pix,
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}, nil
}
