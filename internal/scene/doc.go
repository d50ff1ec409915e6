// Package scene is the in-memory model handed to the document exporter:
// a node tree stored in an arena plus flat pools of meshes, materials,
// lights, cameras, animations and embedded textures.
//
// Nodes are addressed by NodeID handles minted by Scene.AddNode. Every
// cross-reference (mesh to material, bone to joint node, animation channel
// to node) is an index or handle into one of these pools, so an exporter
// can key its caches on plain values instead of object identity.
package scene
