/*
Package yolostream runs a pretrained YOLOv3 style object detector over a live
video stream and draws the surviving detections back onto each frame.

Each frame read from a FrameSource is converted into an input blob, passed
through a Network, decoded into candidate detections, reduced with class
agnostic Non-Maximum Suppression and annotated before being handed to a
Display.  Networks can be loaded through OpenCV's DNN module (Darknet cfg and
weights or any other format OpenCV reads) or through ONNX Runtime.

See the stream program in the example subdirectory for usage.
*/
package yolostream
