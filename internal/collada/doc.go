// Package collada writes a scene as a COLLADA 1.4.1 document.
//
// One Exporter runs one pass: node and bone ids are claimed and the
// skeleton roots resolved up front, then the libraries are written in
// a fixed order (images, effects and materials, cameras, lights,
// controllers, geometries, animations) followed by the visual scene.
// Every cross reference points at an id minted earlier in the same pass.
package collada
